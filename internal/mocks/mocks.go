package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"room-chat-service/internal/bus"
	"room-chat-service/internal/models"
	"room-chat-service/internal/repositories"
	"room-chat-service/internal/telemetry"
)

var (
	_ repositories.UserRepository       = (*UserRepositoryMock)(nil)
	_ repositories.RoomRepository       = (*RoomRepositoryMock)(nil)
	_ repositories.MembershipRepository = (*MembershipRepositoryMock)(nil)
	_ repositories.MessageRepository    = (*MessageRepositoryMock)(nil)
	_ repositories.ReceiptRepository    = (*ReceiptRepositoryMock)(nil)
	_ bus.Bus                           = (*BusMock)(nil)
	_ telemetry.Publisher               = (*PublisherMock)(nil)
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateRoom(ctx context.Context, name, createdBy string, isPrivate bool, accessCode *string) (models.Room, error) {
	args := m.Called(ctx, name, createdBy, isPrivate, accessCode)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID string) (models.Room, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	if rooms := args.Get(0); rooms != nil {
		return rooms.([]models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

type MembershipRepositoryMock struct {
	mock.Mock
}

func (m *MembershipRepositoryMock) AddMember(ctx context.Context, userID, roomID string) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) RemoveMember(ctx context.Context, userID, roomID string) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	args := m.Called(ctx, roomID)
	if members := args.Get(0); members != nil {
		return members.([]models.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MembershipRepositoryMock) IsMember(ctx context.Context, userID, roomID string) (bool, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, authorID, text string) (models.Message, error) {
	args := m.Called(ctx, roomID, authorID, text)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(models.Message), args.Error(1)
}

type ReceiptRepositoryMock struct {
	mock.Mock
}

func (m *ReceiptRepositoryMock) Upsert(ctx context.Context, messageID, userID string, status models.ReceiptStatus) error {
	args := m.Called(ctx, messageID, userID, status)
	return args.Error(0)
}

func (m *ReceiptRepositoryMock) ListUnread(ctx context.Context, userID, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, userID, roomID)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

type BusMock struct {
	mock.Mock
}

func (m *BusMock) Publish(ctx context.Context, roomID string, event models.RoomEvent) error {
	args := m.Called(ctx, roomID, event)
	return args.Error(0)
}

func (m *BusMock) Subscribe(roomID string) {
	m.Called(roomID)
}

func (m *BusMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
