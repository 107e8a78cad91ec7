package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
	"github.com/thenoetrevino/tablero/internal/services/status"
)

// Repository is the slice of the data store the ticket service needs.
type Repository interface {
	GetTicket(ctx context.Context, id int) (*models.Ticket, error)
	ListTicketsByStatus(ctx context.Context, statusID int) ([]*models.Ticket, error)
	UpdateTicketFields(ctx context.Context, t *models.Ticket) error
	TicketStore() *database.TicketStore
}

// Membership authorizes the caller against a board.
type Membership interface {
	ValidateMember(ctx context.Context, boardID, userID int) (*models.Board, error)
}

// Statuses resolves the status a ticket lives in.
type Statuses interface {
	GetStatus(ctx context.Context, boardID, statusID int) (*models.Status, error)
}

// Service defines all ticket-related business operations
type Service interface {
	CreateTicket(ctx context.Context, req CreateTicketRequest) (*models.Ticket, error)
	GetTicket(ctx context.Context, ref Ref) (*models.Ticket, error)
	ListTickets(ctx context.Context, boardID, statusID, userID int) ([]*models.Ticket, error)
	UpdateTicket(ctx context.Context, req UpdateTicketRequest) (*UpdateResult, error)
	DeleteTicket(ctx context.Context, ref Ref) error
}

// Ref addresses a ticket through its board and status on behalf of a user.
type Ref struct {
	BoardID  int
	StatusID int
	TicketID int
	UserID   int
}

// CreateTicketRequest encapsulates all data needed to create a ticket
type CreateTicketRequest struct {
	BoardID  int
	StatusID int
	UserID   int
	Title    string
	Content  string
}

// UpdateTicketRequest encapsulates all data needed to update a ticket
// Fields with pointers are optional - nil means don't update
type UpdateTicketRequest struct {
	Ref
	Title     *string
	Content   *string
	StartDate *time.Time
	EndDate   *time.Time
	// TargetStatusID and Position move the ticket. Either one alone keeps the
	// other at its current value.
	TargetStatusID *int
	Position       *float64
}

// UpdateResult is the outcome of UpdateTicket. Items is only set when the
// destination status had to be renumbered and then lists all of its tickets.
type UpdateResult struct {
	Ticket       *models.Ticket  `json:"ticket"`
	Renormalized bool            `json:"renormalized"`
	Items        []ordering.Item `json:"items,omitempty"`
}

type service struct {
	repo      Repository
	members   Membership
	statuses  Statuses
	orderer   *ordering.Manager
	publisher events.Publisher
}

// NewService creates a new ticket service
func NewService(repo Repository, members Membership, statuses Statuses, orderer *ordering.Manager, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		members:   members,
		statuses:  statuses,
		orderer:   orderer,
		publisher: publisher,
	}
}

// CreateTicket appends a ticket to the bottom of its status.
func (s *service) CreateTicket(ctx context.Context, req CreateTicketRequest) (*models.Ticket, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.ValidateMember(ctx, req.BoardID, req.UserID); err != nil {
		return nil, err
	}
	if _, err := s.statuses.GetStatus(ctx, req.BoardID, req.StatusID); err != nil {
		return nil, err
	}

	store := s.repo.TicketStore()
	group := database.TicketGroup(req.StatusID)
	guard, err := s.orderer.Acquire(ctx, store.Scope(), group)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	tx, err := store.BeginTicketTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	pos, err := s.orderer.Append(ctx, tx, group)
	if err != nil {
		return nil, err
	}
	t := &models.Ticket{
		BoardID:  req.BoardID,
		StatusID: req.StatusID,
		Title:    title,
		Content:  req.Content,
		Position: pos,
	}
	if err := tx.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket: %w", err)
	}

	s.publish(events.NewEvent(events.TicketCreated, req.BoardID, req.UserID, t))
	return t, nil
}

// GetTicket retrieves a ticket of a status the caller can see.
func (s *service) GetTicket(ctx context.Context, ref Ref) (*models.Ticket, error) {
	if _, err := s.members.ValidateMember(ctx, ref.BoardID, ref.UserID); err != nil {
		return nil, err
	}
	return s.lookup(ctx, ref)
}

// ListTickets returns the tickets of a status in position order.
func (s *service) ListTickets(ctx context.Context, boardID, statusID, userID int) ([]*models.Ticket, error) {
	if _, err := s.members.ValidateMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	if _, err := s.statuses.GetStatus(ctx, boardID, statusID); err != nil {
		return nil, err
	}
	return s.repo.ListTicketsByStatus(ctx, statusID)
}

// UpdateTicket applies the content fields and the move in one transaction.
func (s *service) UpdateTicket(ctx context.Context, req UpdateTicketRequest) (*UpdateResult, error) {
	if _, err := s.members.ValidateMember(ctx, req.BoardID, req.UserID); err != nil {
		return nil, err
	}
	t, err := s.lookup(ctx, req.Ref)
	if err != nil {
		return nil, err
	}

	fields := *t
	if req.Title != nil {
		if fields.Title, err = validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		fields.Content = *req.Content
	}
	if req.StartDate != nil {
		fields.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		fields.EndDate = req.EndDate
	}
	if fields.StartDate != nil && fields.EndDate != nil && fields.StartDate.After(*fields.EndDate) {
		return nil, ErrInvalidDateRange
	}

	target := t.StatusID
	if req.TargetStatusID != nil {
		target = *req.TargetStatusID
		if _, err := s.statuses.GetStatus(ctx, req.BoardID, target); err != nil {
			return nil, err
		}
	}
	pos := t.Position
	if req.Position != nil {
		pos = *req.Position
		if err := ordering.ValidatePosition(pos); err != nil {
			return nil, err
		}
	}

	fieldsChanged := req.Title != nil || req.Content != nil || req.StartDate != nil || req.EndDate != nil
	moved := req.Position != nil || target != t.StatusID
	result := &UpdateResult{}
	if moved {
		mr, err := s.orderer.Move(ctx, s.repo.TicketStore(), ordering.MoveRequest{
			ItemID:   t.ID,
			Group:    database.TicketGroup(target),
			Position: pos,
			Apply: func(ctx context.Context, otx ordering.Tx) error {
				tx, ok := otx.(*database.TicketTx)
				if !ok {
					return fmt.Errorf("unexpected ticket transaction %T", otx)
				}
				if err := tx.CheckStatus(ctx, req.BoardID, target); err != nil {
					if errors.Is(err, database.ErrNotFound) {
						return fmt.Errorf("%w: %v", status.ErrStatusNotFound, err)
					}
					return err
				}
				if fieldsChanged {
					return tx.UpdateFields(ctx, &fields)
				}
				return nil
			},
		})
		if err != nil {
			return nil, mapOrderingError(err)
		}
		result.Renormalized = mr.Renormalized
		result.Items = mr.Items
	} else if fieldsChanged {
		if err := s.repo.UpdateTicketFields(ctx, &fields); err != nil {
			return nil, err
		}
	}

	if result.Ticket, err = s.repo.GetTicket(ctx, t.ID); err != nil {
		return nil, mapStoreError(err)
	}

	switch {
	case result.Renormalized:
		s.publish(events.NewEvent(events.TicketReordered, req.BoardID, req.UserID, result))
	case moved:
		s.publish(events.NewEvent(events.TicketMoved, req.BoardID, req.UserID, result))
	case fieldsChanged:
		s.publish(events.NewEvent(events.TicketUpdated, req.BoardID, req.UserID, result))
	}
	return result, nil
}

// DeleteTicket soft-deletes a ticket. The other tickets keep their positions.
func (s *service) DeleteTicket(ctx context.Context, ref Ref) error {
	if _, err := s.members.ValidateMember(ctx, ref.BoardID, ref.UserID); err != nil {
		return err
	}
	t, err := s.lookup(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.orderer.Remove(ctx, s.repo.TicketStore(), t.ID); err != nil {
		return mapOrderingError(err)
	}

	s.publish(events.NewEvent(events.TicketDeleted, ref.BoardID, ref.UserID,
		map[string]int{"id": t.ID, "statusId": t.StatusID}))
	return nil
}

// lookup returns the live ticket when it sits in the referenced status of the
// referenced board.
func (s *service) lookup(ctx context.Context, ref Ref) (*models.Ticket, error) {
	if ref.TicketID <= 0 {
		return nil, ErrInvalidTicketID
	}
	if _, err := s.statuses.GetStatus(ctx, ref.BoardID, ref.StatusID); err != nil {
		return nil, err
	}
	t, err := s.repo.GetTicket(ctx, ref.TicketID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if t.BoardID != ref.BoardID || t.StatusID != ref.StatusID {
		return nil, ErrTicketNotFound
	}
	return t, nil
}

func (s *service) publish(e events.Event) {
	// Failures are logged by PublishWithRetry; the change is already committed.
	_ = events.PublishWithRetry(s.publisher, e, events.DefaultRetries)
}

func mapStoreError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrTicketNotFound
	}
	return err
}

func mapOrderingError(err error) error {
	if errors.Is(err, ordering.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrTicketNotFound, err)
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
