package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"faderbank/internal/database"
	"faderbank/internal/models"
	"faderbank/internal/repositories/postgres"
	"faderbank/internal/rooms"
	"faderbank/internal/services"
)

// newRouterFixture wires a router over real services and an in-memory store,
// seeded with one profile owned by user 7.
func newRouterFixture(t *testing.T) (*Hub, *EventRouter, uint) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	users := postgres.NewUserRepository(db)
	profiles := postgres.NewProfileRepository(db)
	members := postgres.NewMemberRepository(db)
	strips := postgres.NewChannelStripRepository(db)
	resps := postgres.NewResponsibilityRepository(db)

	hub := NewHub(nil, nil)
	respService := services.NewResponsibilityService(resps, members, users, hub)
	hub.AttachResponsibility(respService)
	memberService := services.NewMemberService(profiles, members, respService, hub)
	channelService := services.NewChannelService(db, strips, members, hub)
	router := NewEventRouter(hub, memberService, channelService, respService)

	require.NoError(t, db.Create(&models.User{ID: 7, Username: "ava", DisplayName: "Ava"}).Error)
	profile := &models.Profile{Name: "Main Hall", Slug: "main-hall", OwnerID: 7}
	require.NoError(t, db.Create(profile).Error)
	require.NoError(t, db.Create(&models.Member{
		ProfileID: profile.ID, UserID: 7, Role: models.RoleOwner, AddedBy: 7,
	}).Error)
	require.NoError(t, resps.Init(profile.ID))

	return hub, router, profile.ID
}

func sendAction(t *testing.T, router *EventRouter, client *Client, action string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	router.Handle(context.Background(), client, &Message{
		Event:  action,
		Data:   data,
		UserID: client.userID,
	})
}

func TestRepeatTakeIsSilentForHolder(t *testing.T) {
	hub, router, profileID := newRouterFixture(t)

	ava := newTestClient(hub, 7, "Ava")
	hub.JoinRoom(ava, profileID)

	sendAction(t, router, ava, rooms.ActionTakeResponsibility, ResponsibilityPayload{ProfileID: profileID})
	msg := recvEvent(t, ava)
	assert.Equal(t, rooms.EventResponsibilityChanged, msg.Event)

	// Taking what you already hold is a no-op: no echo, no room traffic.
	sendAction(t, router, ava, rooms.ActionTakeResponsibility, ResponsibilityPayload{ProfileID: profileID})
	assertNoEvent(t, ava)
}
