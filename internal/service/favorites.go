package service

import (
	"context"
	"errors"
	"sync"

	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"go.uber.org/zap"
)

// ErrToggleInFlight means a toggle for the same logical item has not
// resolved yet; the duplicate invocation is a no-op.
var ErrToggleInFlight = errors.New("toggle already in flight for this item")

// ErrAlreadyInvited means the inviter already invited this expert.
var ErrAlreadyInvited = errors.New("expert already invited")

// FavoritesService keeps a client-visible favorites list consistent with
// the backend while making toggles feel instantaneous.
type FavoritesService struct {
	gw     *gateway.Client
	store  store.Store
	logger *zap.Logger

	mu       sync.Mutex
	list     []domain.FavoriteEntry
	inflight map[string]struct{}
	invited  map[string]bool
}

func NewFavoritesService(gw *gateway.Client, st store.Store, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{
		gw:       gw,
		store:    st,
		logger:   logger,
		inflight: make(map[string]struct{}),
		invited:  make(map[string]bool),
	}
}

func (s *FavoritesService) session(ctx context.Context) (*domain.Session, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotSignedIn
	}
	return sess, nil
}

// Load replaces the local list with the authoritative backend state.
func (s *FavoritesService) Load(ctx context.Context) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}

	list, err := s.gw.Favorites(ctx, sess.Token, sess.User.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	return nil
}

// List returns a copy of the current favorites list.
func (s *FavoritesService) List() []domain.FavoriteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.FavoriteEntry, len(s.list))
	copy(out, s.list)
	return out
}

// Toggle adds or removes a favorite. The local list is mutated before the
// network call resolves; on success it is replaced by a fresh fetch of the
// authoritative list, on failure it reverts to the pre-toggle snapshot.
// Returns whether the item ended up favorited.
func (s *FavoritesService) Toggle(ctx context.Context, entry domain.FavoriteEntry) (bool, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return false, err
	}

	key := IdentityKey(entry)

	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return false, ErrToggleInFlight
	}

	snapshot := make([]domain.FavoriteEntry, len(s.list))
	copy(snapshot, s.list)

	removing := Contains(s.list, entry)
	var removeID string
	if removing {
		// DELETE goes by type+id, so resolve the id from the entry the
		// list actually holds, not the caller's snapshot.
		for _, e := range s.list {
			if SameFavorite(e, entry) {
				removeID = itemID(e)
				break
			}
		}
		s.list = Apply(s.list, OpRemove, entry)
	} else {
		s.list = Apply(s.list, OpAdd, entry)
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	if removing {
		err = s.gw.RemoveFavorite(ctx, sess.Token, sess.User.ID, entry.Type, removeID)
	} else {
		err = s.gw.AddFavorite(ctx, sess.Token, sess.User.ID, snapshotEntry(entry))
	}

	if err != nil {
		s.mu.Lock()
		s.list = snapshot
		delete(s.inflight, key)
		s.mu.Unlock()
		return removing, err
	}

	// Re-fetch rather than trusting the optimistic value: server-side
	// normalization may resolve identity differently than the local tiers.
	fresh, ferr := s.gw.Favorites(ctx, sess.Token, sess.User.ID)

	s.mu.Lock()
	if ferr == nil {
		s.list = fresh
	} else {
		s.logger.Warn("Failed to refresh favorites after toggle", zap.Error(ferr))
	}
	delete(s.inflight, key)
	s.mu.Unlock()

	return !removing, nil
}

// snapshotEntry fills the denormalized fields the backend stores with an
// added favorite, always including a resolved id.
func snapshotEntry(entry domain.FavoriteEntry) domain.FavoriteEntry {
	out := entry
	if out.Item.ID == "" {
		out.Item.ID = out.ID
	}
	return out
}

// CheckInvited reports whether the current user already invited this
// expert. The answer is fetched once and cached until a send flips it.
func (s *FavoritesService) CheckInvited(ctx context.Context, expertName string) (bool, error) {
	s.mu.Lock()
	if invited, ok := s.invited[expertName]; ok {
		s.mu.Unlock()
		return invited, nil
	}
	s.mu.Unlock()

	sess, err := s.session(ctx)
	if err != nil {
		return false, err
	}

	invited, err := s.gw.CheckInvite(ctx, sess.Token, sess.User.ID, expertName)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.invited[expertName] = invited
	s.mu.Unlock()
	return invited, nil
}

// Invite sends an invite-to-platform for an expert. A second invite for
// the same expert is rejected locally without a network call.
func (s *FavoritesService) Invite(ctx context.Context, inv domain.ExpertInvite) error {
	invited, err := s.CheckInvited(ctx, inv.Name)
	if err != nil {
		return err
	}
	if invited {
		return ErrAlreadyInvited
	}

	sess, err := s.session(ctx)
	if err != nil {
		return err
	}

	inv.InviterID = sess.User.ID
	if err := s.gw.SendInvite(ctx, sess.Token, inv); err != nil {
		return err
	}

	s.mu.Lock()
	s.invited[inv.Name] = true
	s.mu.Unlock()
	return nil
}

// Invites lists the invites the current user has sent.
func (s *FavoritesService) Invites(ctx context.Context) ([]domain.ExpertInvite, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.gw.Invites(ctx, sess.Token, sess.User.ID)
}

// Summarize requests an on-demand AI summary of profile text.
func (s *FavoritesService) Summarize(ctx context.Context, text string) (string, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return "", err
	}
	return s.gw.Summarize(ctx, sess.Token, text)
}

// ExpertProfile fetches the expert profile behind the viewer.
func (s *FavoritesService) ExpertProfile(ctx context.Context, q gateway.ExpertQuery) (*domain.ExpertProfile, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.gw.ExpertProfile(ctx, sess.Token, q)
}
