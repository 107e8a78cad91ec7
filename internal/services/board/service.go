package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
)

// Defaults for Config.
const (
	DefaultInviteCodeLength = 8
	DefaultPageSize         = 10
)

// Repository is the slice of the data store the board service needs.
type Repository interface {
	GetBoard(ctx context.Context, id int) (*models.Board, error)
	GetBoardByInviteCode(ctx context.Context, code string) (*models.Board, error)
	ListBoardsForUser(ctx context.Context, userID, limit, offset int) ([]*models.Board, int, error)
	UpdateBoard(ctx context.Context, b *models.Board) error
	SoftDeleteBoard(ctx context.Context, id int) error
	SetInviteCode(ctx context.Context, id int, code string) error
	AddMember(ctx context.Context, boardID, userID int) error
	RemoveMember(ctx context.Context, boardID, userID int) error
	IsMember(ctx context.Context, boardID, userID int) (bool, error)
	MemberIDs(ctx context.Context, boardID int) ([]int, error)
	ListStatuses(ctx context.Context, boardID int) ([]*models.Status, error)
	ListTicketsByBoard(ctx context.Context, boardID int) ([]*models.Ticket, error)
	StatusStore() *database.StatusStore
}

// Service defines all board-related business operations
type Service interface {
	// Boards
	CreateBoard(ctx context.Context, req CreateBoardRequest) (*models.BoardDetail, error)
	ListBoards(ctx context.Context, userID, page int) (*models.BoardPage, error)
	GetBoard(ctx context.Context, boardID, userID int) (*models.BoardDetail, error)
	UpdateBoard(ctx context.Context, req UpdateBoardRequest) (*models.Board, error)
	DeleteBoard(ctx context.Context, boardID, userID int) error

	// Membership
	Invite(ctx context.Context, boardID, userID int, regenerate bool) (string, error)
	DeleteInviteCode(ctx context.Context, boardID, userID int) error
	Join(ctx context.Context, boardID, userID int, inviteCode string) (*models.Board, error)
	Kick(ctx context.Context, boardID, ownerID, userID int) error
	Leave(ctx context.Context, boardID, userID int) error

	// Authorization checks used by the status and ticket services
	ValidateMember(ctx context.Context, boardID, userID int) (*models.Board, error)
	ValidateOwner(ctx context.Context, boardID, userID int) (*models.Board, error)
}

// CreateBoardRequest encapsulates all data needed to create a board
type CreateBoardRequest struct {
	UserID int
	Title  string
	Icon   string
}

// UpdateBoardRequest encapsulates all data needed to update a board
// Fields with pointers are optional - nil means don't update
type UpdateBoardRequest struct {
	BoardID int
	UserID  int
	Title   *string
	Icon    *string
}

// Config tunes pagination and invite codes.
type Config struct {
	InviteCodeLength int
	PageSize         int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{InviteCodeLength: DefaultInviteCodeLength, PageSize: DefaultPageSize}
}

type service struct {
	repo      Repository
	orderer   *ordering.Manager
	publisher events.Publisher
	cfg       Config
	newCode   func(n int) (string, error)
}

// NewService creates a new board service
func NewService(repo Repository, orderer *ordering.Manager, publisher events.Publisher, cfg Config) Service {
	if cfg.InviteCodeLength <= 0 {
		cfg.InviteCodeLength = DefaultInviteCodeLength
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &service{
		repo:      repo,
		orderer:   orderer,
		publisher: publisher,
		cfg:       cfg,
		newCode:   randomInviteCode,
	}
}

// CreateBoard creates the board, makes the caller its owner and seeds one status
// per lane, all in one transaction. The board is invisible to everyone else until
// the commit, so the lane locks are not taken.
func (s *service) CreateBoard(ctx context.Context, req CreateBoardRequest) (*models.BoardDetail, error) {
	if req.UserID <= 0 {
		return nil, ErrInvalidUserID
	}
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.StatusStore().BeginStatusTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	b := &models.Board{OwnerID: req.UserID, Title: title, Icon: strings.TrimSpace(req.Icon)}
	if err := tx.CreateBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	detail := &models.BoardDetail{
		Board:     b,
		Statuses:  make([]*models.StatusDetail, 0, len(models.DefaultStatuses)),
		MemberIDs: []int{req.UserID},
	}
	for _, def := range models.DefaultStatuses {
		pos, err := s.orderer.Append(ctx, tx, database.StatusGroup(b.ID, def.Lane))
		if err != nil {
			return nil, fmt.Errorf("failed to place status %q: %w", def.Title, err)
		}
		st := &models.Status{BoardID: b.ID, Lane: def.Lane, Title: def.Title, Color: def.Color, Position: pos}
		if err := tx.Create(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to create status %q: %w", def.Title, err)
		}
		detail.Statuses = append(detail.Statuses, &models.StatusDetail{Status: *st, Tickets: []*models.Ticket{}})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit board: %w", err)
	}

	slog.Info("board created", "board_id", b.ID, "owner_id", b.OwnerID)
	return detail, nil
}

// ListBoards returns one page of the caller's boards, newest first. Invite codes
// are only shown on boards the caller owns.
func (s *service) ListBoards(ctx context.Context, userID, page int) (*models.BoardPage, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}

	limit := s.cfg.PageSize
	boards, total, err := s.repo.ListBoardsForUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		if b.OwnerID != userID {
			b.InviteCode = ""
		}
	}

	return &models.BoardPage{
		Boards:    boards,
		Total:     total,
		Page:      page,
		TotalPage: (total + limit - 1) / limit,
	}, nil
}

// GetBoard returns the board with its statuses in lane and position order, each
// carrying its tickets in position order.
func (s *service) GetBoard(ctx context.Context, boardID, userID int) (*models.BoardDetail, error) {
	b, err := s.ValidateMember(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != userID {
		b.InviteCode = ""
	}

	statuses, err := s.repo.ListStatuses(ctx, boardID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.repo.ListTicketsByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.MemberIDs(ctx, boardID)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[int]*models.StatusDetail, len(statuses))
	detail := &models.BoardDetail{
		Board:     b,
		Statuses:  make([]*models.StatusDetail, 0, len(statuses)),
		MemberIDs: members,
	}
	for _, st := range statuses {
		sd := &models.StatusDetail{Status: *st, Tickets: []*models.Ticket{}}
		byStatus[st.ID] = sd
		detail.Statuses = append(detail.Statuses, sd)
	}
	for _, t := range tickets {
		if sd, ok := byStatus[t.StatusID]; ok {
			sd.Tickets = append(sd.Tickets, t)
		}
	}
	return detail, nil
}

// UpdateBoard changes the title and icon. Owner only.
func (s *service) UpdateBoard(ctx context.Context, req UpdateBoardRequest) (*models.Board, error) {
	b, err := s.ValidateOwner(ctx, req.BoardID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		b.Title = title
	}
	if req.Icon != nil {
		b.Icon = strings.TrimSpace(*req.Icon)
	}

	if err := s.repo.UpdateBoard(ctx, b); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetBoard(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	s.publish(events.NewEvent(events.BoardUpdated, b.ID, req.UserID, updated))
	return updated, nil
}

// DeleteBoard soft-deletes the board and drops every membership. Owner only.
func (s *service) DeleteBoard(ctx context.Context, boardID, userID int) error {
	if _, err := s.ValidateOwner(ctx, boardID, userID); err != nil {
		return err
	}
	if err := s.repo.SoftDeleteBoard(ctx, boardID); err != nil {
		return err
	}

	slog.Info("board deleted", "board_id", boardID, "user_id", userID)
	s.publish(events.NewEvent(events.BoardDeleted, boardID, userID, nil))
	return nil
}

// Invite returns the board's invite code, generating one when there is none or
// when regenerate is set. Owner only.
func (s *service) Invite(ctx context.Context, boardID, userID int, regenerate bool) (string, error) {
	b, err := s.ValidateOwner(ctx, boardID, userID)
	if err != nil {
		return "", err
	}
	if !regenerate && b.InviteCode != "" {
		return b.InviteCode, nil
	}

	for attempt := 1; attempt <= MaxInviteAttempts; attempt++ {
		code, err := s.newCode(s.cfg.InviteCodeLength)
		if err != nil {
			return "", err
		}
		err = s.repo.SetInviteCode(ctx, boardID, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return "", err
		}
		slog.Debug("invite code taken, retrying", "board_id", boardID, "attempt", attempt)
	}

	slog.Warn("invite code generation exhausted", "board_id", boardID, "attempts", MaxInviteAttempts)
	return "", ErrInviteCodeExhausted
}

// DeleteInviteCode clears the board's invite code. Owner only.
func (s *service) DeleteInviteCode(ctx context.Context, boardID, userID int) error {
	if _, err := s.ValidateOwner(ctx, boardID, userID); err != nil {
		return err
	}
	return s.repo.SetInviteCode(ctx, boardID, "")
}

// Join adds the caller to the board the invite code belongs to.
func (s *service) Join(ctx context.Context, boardID, userID int, inviteCode string) (*models.Board, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	inviteCode = strings.TrimSpace(inviteCode)
	if inviteCode == "" {
		return nil, ErrInvalidInviteCode
	}

	b, err := s.repo.GetBoardByInviteCode(ctx, inviteCode)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidInviteCode
	}
	if err != nil {
		return nil, err
	}
	if b.ID != boardID {
		return nil, ErrInvalidInviteCode
	}

	err = s.repo.AddMember(ctx, boardID, userID)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, err
	}

	s.publish(events.NewEvent(events.MemberJoined, boardID, userID, events.MemberPayload{UserID: userID}))
	b.InviteCode = ""
	return b, nil
}

// Kick removes userID from the board. Owner only; the owner cannot kick themselves.
func (s *service) Kick(ctx context.Context, boardID, ownerID, userID int) error {
	b, err := s.ValidateOwner(ctx, boardID, ownerID)
	if err != nil {
		return err
	}
	if userID == b.OwnerID {
		return ErrCannotKickOwner
	}

	member, err := s.repo.IsMember(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	if err := s.repo.RemoveMember(ctx, boardID, userID); err != nil {
		return err
	}

	s.publish(events.NewEvent(events.MemberKicked, boardID, ownerID, events.MemberPayload{UserID: userID}))
	return nil
}

// Leave removes the caller from the board. The owner may only leave a board they
// are alone on, which deletes it.
func (s *service) Leave(ctx context.Context, boardID, userID int) error {
	b, err := s.ValidateMember(ctx, boardID, userID)
	if err != nil {
		return err
	}

	if b.OwnerID != userID {
		if err := s.repo.RemoveMember(ctx, boardID, userID); err != nil {
			return err
		}
		s.publish(events.NewEvent(events.MemberLeft, boardID, userID, events.MemberPayload{UserID: userID}))
		return nil
	}

	members, err := s.repo.MemberIDs(ctx, boardID)
	if err != nil {
		return err
	}
	for _, id := range members {
		if id != userID {
			return ErrMembersRemaining
		}
	}
	if err := s.repo.SoftDeleteBoard(ctx, boardID); err != nil {
		return err
	}

	slog.Info("board deleted by owner leaving", "board_id", boardID, "user_id", userID)
	s.publish(events.NewEvent(events.BoardDeleted, boardID, userID, nil))
	return nil
}

// ValidateMember returns the live board when userID belongs to it.
func (s *service) ValidateMember(ctx context.Context, boardID, userID int) (*models.Board, error) {
	b, err := s.getBoard(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	member, err := s.repo.IsMember(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

// ValidateOwner returns the live board when userID owns it.
func (s *service) ValidateOwner(ctx context.Context, boardID, userID int) (*models.Board, error) {
	b, err := s.getBoard(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != userID {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

func (s *service) getBoard(ctx context.Context, boardID, userID int) (*models.Board, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	b, err := s.repo.GetBoard(ctx, boardID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBoardNotFound
	}
	return b, err
}

func (s *service) publish(e events.Event) {
	// Failures are logged by PublishWithRetry; the change is already committed.
	_ = events.PublishWithRetry(s.publisher, e, events.DefaultRetries)
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
