package status

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
)

// Repository is the slice of the data store the status service needs.
type Repository interface {
	GetStatus(ctx context.Context, id int) (*models.Status, error)
	ListStatuses(ctx context.Context, boardID int) ([]*models.Status, error)
	UpdateStatusFields(ctx context.Context, s *models.Status) error
	StatusStore() *database.StatusStore
}

// Membership authorizes the caller against a board.
type Membership interface {
	ValidateMember(ctx context.Context, boardID, userID int) (*models.Board, error)
}

// Service defines all status-related business operations
type Service interface {
	CreateStatus(ctx context.Context, req CreateStatusRequest) (*models.Status, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*UpdateResult, error)
	DeleteStatus(ctx context.Context, boardID, statusID, userID int) error
	ListStatuses(ctx context.Context, boardID, userID int) ([]*models.Status, error)
	// GetStatus returns a live status of the board; no membership check.
	GetStatus(ctx context.Context, boardID, statusID int) (*models.Status, error)
}

// CreateStatusRequest encapsulates all data needed to create a status
type CreateStatusRequest struct {
	BoardID int
	UserID  int
	Title   string
	Lane    string
	Color   string // Optional: empty means black
}

// UpdateStatusRequest encapsulates all data needed to update a status
// Fields with pointers are optional - nil means don't update
type UpdateStatusRequest struct {
	BoardID  int
	StatusID int
	UserID   int
	Title    *string
	Color    *string
	Lane     *string
	Position *float64
}

// UpdateResult is the outcome of UpdateStatus. Items is only set when the lane
// had to be renumbered and then lists every status of the lane in order.
type UpdateResult struct {
	Status       *models.Status  `json:"status"`
	Renormalized bool            `json:"renormalized"`
	Items        []ordering.Item `json:"items,omitempty"`
}

type service struct {
	repo      Repository
	members   Membership
	orderer   *ordering.Manager
	publisher events.Publisher
}

// NewService creates a new status service
func NewService(repo Repository, members Membership, orderer *ordering.Manager, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		members:   members,
		orderer:   orderer,
		publisher: publisher,
	}
}

// CreateStatus appends a status to the tail of its lane.
func (s *service) CreateStatus(ctx context.Context, req CreateStatusRequest) (*models.Status, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	lane, err := models.ParseLane(req.Lane)
	if err != nil {
		return nil, err
	}
	color := models.ColorBlack
	if req.Color != "" {
		if color, err = models.ParseColor(req.Color); err != nil {
			return nil, err
		}
	}
	if _, err := s.members.ValidateMember(ctx, req.BoardID, req.UserID); err != nil {
		return nil, err
	}

	store := s.repo.StatusStore()
	group := database.StatusGroup(req.BoardID, lane)
	guard, err := s.orderer.Acquire(ctx, store.Scope(), group)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	tx, err := store.BeginStatusTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	pos, err := s.orderer.Append(ctx, tx, group)
	if err != nil {
		return nil, err
	}
	st := &models.Status{BoardID: req.BoardID, Lane: lane, Title: title, Color: color, Position: pos}
	if err := tx.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status: %w", err)
	}

	s.publish(events.NewEvent(events.StatusCreated, req.BoardID, req.UserID, st))
	return st, nil
}

// UpdateStatus applies the title, color and move in one transaction. A lane change
// without a position keeps the status' current position in the new lane.
func (s *service) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*UpdateResult, error) {
	if _, err := s.members.ValidateMember(ctx, req.BoardID, req.UserID); err != nil {
		return nil, err
	}
	st, err := s.GetStatus(ctx, req.BoardID, req.StatusID)
	if err != nil {
		return nil, err
	}

	fields := *st
	if req.Title != nil {
		if fields.Title, err = validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Color != nil {
		if fields.Color, err = models.ParseColor(*req.Color); err != nil {
			return nil, err
		}
	}
	lane := st.Lane
	if req.Lane != nil {
		if lane, err = models.ParseLane(*req.Lane); err != nil {
			return nil, err
		}
	}
	pos := st.Position
	if req.Position != nil {
		pos = *req.Position
		if err := ordering.ValidatePosition(pos); err != nil {
			return nil, err
		}
	}

	fieldsChanged := fields.Title != st.Title || fields.Color != st.Color
	moved := req.Position != nil || lane != st.Lane
	result := &UpdateResult{}
	if moved {
		mr, err := s.orderer.Move(ctx, s.repo.StatusStore(), ordering.MoveRequest{
			ItemID:   st.ID,
			Group:    database.StatusGroup(req.BoardID, lane),
			Position: pos,
			Apply: func(ctx context.Context, otx ordering.Tx) error {
				if !fieldsChanged {
					return nil
				}
				tx, ok := otx.(*database.StatusTx)
				if !ok {
					return fmt.Errorf("unexpected status transaction %T", otx)
				}
				return tx.UpdateFields(ctx, &fields)
			},
		})
		if err != nil {
			return nil, mapOrderingError(err)
		}
		result.Renormalized = mr.Renormalized
		result.Items = mr.Items
	} else if fieldsChanged {
		if err := s.repo.UpdateStatusFields(ctx, &fields); err != nil {
			return nil, err
		}
	}

	if result.Status, err = s.GetStatus(ctx, req.BoardID, req.StatusID); err != nil {
		return nil, err
	}

	switch {
	case result.Renormalized:
		s.publish(events.NewEvent(events.StatusReordered, req.BoardID, req.UserID, result))
	case moved:
		s.publish(events.NewEvent(events.StatusMoved, req.BoardID, req.UserID, result))
	case fieldsChanged:
		s.publish(events.NewEvent(events.StatusUpdated, req.BoardID, req.UserID, result))
	}
	return result, nil
}

// DeleteStatus soft-deletes a status. The rest of the lane keeps its positions.
func (s *service) DeleteStatus(ctx context.Context, boardID, statusID, userID int) error {
	if _, err := s.members.ValidateMember(ctx, boardID, userID); err != nil {
		return err
	}
	if _, err := s.GetStatus(ctx, boardID, statusID); err != nil {
		return err
	}
	if err := s.orderer.Remove(ctx, s.repo.StatusStore(), statusID); err != nil {
		return mapOrderingError(err)
	}

	s.publish(events.NewEvent(events.StatusDeleted, boardID, userID, map[string]int{"id": statusID}))
	return nil
}

// ListStatuses returns the statuses of a board ordered by lane, then position.
func (s *service) ListStatuses(ctx context.Context, boardID, userID int) ([]*models.Status, error) {
	if _, err := s.members.ValidateMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListStatuses(ctx, boardID)
}

// GetStatus returns the live status when it belongs to the board.
func (s *service) GetStatus(ctx context.Context, boardID, statusID int) (*models.Status, error) {
	if statusID <= 0 {
		return nil, ErrInvalidStatusID
	}
	st, err := s.repo.GetStatus(ctx, statusID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	if st.BoardID != boardID {
		return nil, ErrStatusNotFound
	}
	return st, nil
}

func (s *service) publish(e events.Event) {
	// Failures are logged by PublishWithRetry; the change is already committed.
	_ = events.PublishWithRetry(s.publisher, e, events.DefaultRetries)
}

func mapOrderingError(err error) error {
	if errors.Is(err, ordering.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrStatusNotFound, err)
	}
	return err
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if len(title) > 255 {
		return "", ErrTitleTooLong
	}
	return title, nil
}
