package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"room-chat-service/internal/mocks"
	"room-chat-service/internal/models"
	"room-chat-service/internal/repositories"
)

func setupRoomRouter(handler *RoomHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	r.POST("/api/rooms", handler.CreateRoom)
	r.GET("/api/rooms/my-rooms", handler.MyRooms)
	r.GET("/api/rooms/:room_id", handler.GetRoom)
	r.POST("/api/rooms/:room_id/join", handler.JoinRoom)
	r.POST("/api/rooms/:room_id/messages", handler.PostMessage)
	return r
}

func TestCreateRoomSuccess(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(rooms, new(mocks.MembershipRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("CreateRoom", mock.Anything, "general", "u1", false, (*string)(nil)).
		Return(models.Room{ID: "r1", Name: "general", CreatedBy: "u1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(`{"name":"general"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	rooms.AssertExpectations(t)
}

func TestCreateRoomDuplicateName(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(rooms, new(mocks.MembershipRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("CreateRoom", mock.Anything, "general", "u1", false, (*string)(nil)).
		Return(models.Room{}, repositories.ErrRoomNameTaken).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(`{"name":"general"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	rooms.AssertExpectations(t)
}

func TestCreateRoomPrivateRequiresAccessCode(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(rooms, new(mocks.MembershipRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(`{"name":"secret","is_private":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	rooms.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinRoomUnknownRoom(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	members := new(mocks.MembershipRepositoryMock)
	handler := NewRoomHandler(rooms, members, new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("GetRoom", mock.Anything, "r404").Return(models.Room{}, repositories.ErrRoomNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r404/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	members.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinPublicRoomSuccess(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	members := new(mocks.MembershipRepositoryMock)
	handler := NewRoomHandler(rooms, members, new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("GetRoom", mock.Anything, "r1").Return(models.Room{ID: "r1", Name: "general"}, nil).Once()
	members.On("AddMember", mock.Anything, "u1", "r1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
	members.AssertExpectations(t)
}

func TestJoinPrivateRoomWrongAccessCode(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	members := new(mocks.MembershipRepositoryMock)
	handler := NewRoomHandler(rooms, members, new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	code := "s3cret"
	rooms.On("GetRoom", mock.Anything, "r1").Return(models.Room{ID: "r1", IsPrivate: true, AccessCode: &code}, nil).Once()
	members.On("IsMember", mock.Anything, "u1", "r1").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/join", bytes.NewBufferString(`{"access_code":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	members.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinPrivateRoomExistingMemberNeedsNoCode(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	members := new(mocks.MembershipRepositoryMock)
	handler := NewRoomHandler(rooms, members, new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	code := "s3cret"
	rooms.On("GetRoom", mock.Anything, "r1").Return(models.Room{ID: "r1", IsPrivate: true, AccessCode: &code}, nil).Once()
	members.On("IsMember", mock.Anything, "u1", "r1").Return(true, nil).Once()
	members.On("AddMember", mock.Anything, "u1", "r1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	members.AssertExpectations(t)
}

func TestMyRooms(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(rooms, new(mocks.MembershipRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("ListRoomsForUser", mock.Anything, "u1").
		Return([]models.Room{{ID: "r1", Name: "general"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/my-rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.Room
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp["rooms"], 1)
	rooms.AssertExpectations(t)
}

func TestGetRoomNonMemberForbidden(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	members := new(mocks.MembershipRepositoryMock)
	handler := NewRoomHandler(rooms, members, new(mocks.MessageRepositoryMock), new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("GetRoom", mock.Anything, "r1").Return(models.Room{ID: "r1"}, nil).Once()
	members.On("IsMember", mock.Anything, "u1", "r1").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetRoomWithMembersAndHistory(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	members := new(mocks.MembershipRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewRoomHandler(rooms, members, messages, new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	rooms.On("GetRoom", mock.Anything, "r1").Return(models.Room{ID: "r1", Name: "general"}, nil).Once()
	members.On("IsMember", mock.Anything, "u1", "r1").Return(true, nil).Once()
	members.On("ListMembers", mock.Anything, "r1").
		Return([]models.Member{{UserID: "u1", Username: "alice"}}, nil).Once()
	messages.On("ListRoomMessages", mock.Anything, "r1").
		Return([]models.Message{{ID: "m1", RoomID: "r1", Text: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
	members.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestPostMessageWhitespaceRejected(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	eventBus := new(mocks.BusMock)
	handler := NewRoomHandler(new(mocks.RoomRepositoryMock), new(mocks.MembershipRepositoryMock), messages, eventBus, nil)
	router := setupRoomRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/messages", bytes.NewBufferString(`{"text":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	eventBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageNonMemberForbidden(t *testing.T) {
	members := new(mocks.MembershipRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewRoomHandler(new(mocks.RoomRepositoryMock), members, messages, new(mocks.BusMock), nil)
	router := setupRoomRouter(handler)

	members.On("IsMember", mock.Anything, "u1", "r1").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/messages", bytes.NewBufferString(`{"text":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessagePersistsAndPublishes(t *testing.T) {
	members := new(mocks.MembershipRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	eventBus := new(mocks.BusMock)
	handler := NewRoomHandler(new(mocks.RoomRepositoryMock), members, messages, eventBus, nil)
	router := setupRoomRouter(handler)

	created := models.Message{ID: "m1", RoomID: "r1", AuthorID: "u1", Text: "hello"}
	members.On("IsMember", mock.Anything, "u1", "r1").Return(true, nil).Once()
	messages.On("CreateMessage", mock.Anything, "r1", "u1", "hello").Return(created, nil).Once()
	eventBus.On("Publish", mock.Anything, "r1", mock.MatchedBy(func(event models.RoomEvent) bool {
		return event.Type == models.EventMessage && event.Message != nil && event.Message.ID == "m1"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/messages", bytes.NewBufferString(`{"text":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	members.AssertExpectations(t)
	messages.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}
