package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"faderbank/internal/database"
	"faderbank/internal/models"
	"faderbank/internal/repositories/postgres"
)

// recordingBroadcaster captures everything the services push at the room,
// standing in for the live hub.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	ProfileID uint
	Event     string
	Payload   interface{}
}

func (b *recordingBroadcaster) BroadcastToProfile(profileID uint, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{ProfileID: profileID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) named(event string) []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named in-memory database: every GORM pool connection must see the
	// same data, which plain :memory: does not give us.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite allows one writer at a time; a single pooled connection keeps
	// the concurrent service tests from tripping over lock errors.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

// fixture bundles the whole service layer over one test database.
type fixture struct {
	db       *gorm.DB
	bc       *recordingBroadcaster
	profiles *ProfileService
	members  *MemberService
	channels *ChannelService
	resp     *ResponsibilityService
	invites  *InviteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	bc := &recordingBroadcaster{}

	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	stripRepo := postgres.NewChannelStripRepository(db)
	respRepo := postgres.NewResponsibilityRepository(db)
	linkRepo := postgres.NewActivationLinkRepository(db)

	respService := NewResponsibilityService(respRepo, memberRepo, userRepo, bc)

	return &fixture{
		db:       db,
		bc:       bc,
		profiles: NewProfileService(db, profileRepo, memberRepo, respRepo, bc),
		members:  NewMemberService(profileRepo, memberRepo, respService, bc),
		channels: NewChannelService(db, stripRepo, memberRepo, bc),
		resp:     respService,
		invites:  NewInviteService(db, linkRepo, memberRepo, profileRepo, bc),
	}
}

func (f *fixture) seedUser(t *testing.T, id uint, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.User{
		ID:          id,
		Username:    strings.ToLower(name),
		DisplayName: name,
	}).Error)
}

func (f *fixture) seedMember(t *testing.T, profileID, userID uint, role models.Role) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Member{
		ProfileID: profileID,
		UserID:    userID,
		Role:      role,
		AddedBy:   userID,
	}).Error)
}
