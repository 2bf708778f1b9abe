package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"localfelo_backend/internal/common"
)

type fakeSession struct {
	authenticated bool
	admin         bool
}

func (f *fakeSession) Authenticated() bool { return f.authenticated }
func (f *fakeSession) Admin() bool         { return f.admin }

// MockListingLookup is a mock type for ListingLookup
type MockListingLookup struct {
	mock.Mock
}

func (m *MockListingLookup) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type coordinatorTestSuite struct {
	coord    *Coordinator
	history  *MemoryHistory
	session  *fakeSession
	listings *MockListingLookup
}

func setupCoordinatorTestSuite(t *testing.T, initialPath string, authenticated bool) *coordinatorTestSuite {
	t.Helper()
	ts := &coordinatorTestSuite{
		history:  NewMemoryHistory(),
		session:  &fakeSession{authenticated: authenticated},
		listings: new(MockListingLookup),
	}
	ts.coord = NewCoordinator(initialPath, ts.history, ts.session, ts.listings, zap.NewNop())
	return ts
}

func TestNewCoordinator_InstallsSentinel(t *testing.T) {
	ts := setupCoordinatorTestSuite(t, "/marketplace", false)

	require.Equal(t, 1, ts.history.Len())
	e, ok := ts.history.Current()
	require.True(t, ok)
	assert.True(t, e.State.Sentinel)
	assert.Equal(t, "/marketplace", e.Path)

	tr := ts.coord.Start(context.Background())
	assert.Equal(t, ScreenMarketplace, tr.Screen)
	assert.Equal(t, 1, ts.history.Len(), "start does not push")
}

func TestNavigate_HistoryGrowsByOnePerCall(t *testing.T) {
	ctx := context.Background()
	ts := setupCoordinatorTestSuite(t, "/", true)
	listingID := uuid.NewString()

	calls := []struct {
		screen  Screen
		payload Payload
		path    string
	}{
		{ScreenMarketplace, nil, "/marketplace"},
		{ScreenListing, ListingPayload{ListingID: listingID}, "/listing/" + listingID},
		{ScreenEdit, EditPayload{ListingID: listingID}, "/edit-listing/" + listingID},
		{ScreenChat, ChatPayload{ConversationID: uuid.NewString()}, "/chat"},
		{ScreenTaskDetail, TaskPayload{TaskID: uuid.NewString()}, "/task"},
		{ScreenWishDetail, WishPayload{WishID: uuid.NewString()}, "/wish"},
		{ScreenProfile, nil, "/profile"},
		{ScreenTerms, nil, "/terms"},
		{ScreenNotifications, nil, "/notifications"},
	}
	for i, call := range calls {
		tr := ts.coord.Navigate(ctx, call.screen, call.payload)
		assert.Equal(t, call.screen, tr.Screen)
		assert.Equal(t, call.path, tr.Path)
		assert.True(t, tr.ScrollToTop)
		assert.True(t, tr.Pushed)
		assert.Equal(t, i+2, ts.history.Len())

		e, _ := ts.history.Current()
		assert.Equal(t, call.path, e.Path)
	}
}

func TestNavigate_InvalidListingIDsGoHome(t *testing.T) {
	for _, id := range []string{"", "undefined", "null", "not-a-uuid"} {
		t.Run("id="+id, func(t *testing.T) {
			ts := setupCoordinatorTestSuite(t, "/", false)

			tr := ts.coord.Navigate(context.Background(), ScreenListing, ListingPayload{ListingID: id})
			assert.Equal(t, ScreenHome, tr.Screen)
			assert.Equal(t, "/", tr.Path)
			require.Len(t, tr.Toasts, 1)
			assert.Equal(t, common.ToastError, tr.Toasts[0].Level)
			assert.Equal(t, 2, ts.history.Len())
			assert.Equal(t, ScreenHome, ts.coord.Current().Screen)
		})
	}
}

func TestNavigate_MissingOrMismatchedPayload(t *testing.T) {
	ctx := context.Background()
	ts := setupCoordinatorTestSuite(t, "/", true)

	assert.Equal(t, ScreenHome, ts.coord.Navigate(ctx, ScreenListing, nil).Screen)
	assert.Equal(t, ScreenHome, ts.coord.Navigate(ctx, ScreenListing, TaskPayload{TaskID: uuid.NewString()}).Screen)
	assert.Equal(t, ScreenHome, ts.coord.Navigate(ctx, ScreenTaskDetail, nil).Screen)
	assert.Equal(t, ScreenHome, ts.coord.Navigate(ctx, ScreenChat, ChatPayload{ConversationID: "null"}).Screen)
	assert.Equal(t, ScreenChat, ts.coord.Navigate(ctx, ScreenChat, nil).Screen, "chat without a conversation is the inbox")
}

func TestNavigate_GuardedScreensRequireSession(t *testing.T) {
	ctx := context.Background()
	ts := setupCoordinatorTestSuite(t, "/", false)
	ts.coord.Navigate(ctx, ScreenMarketplace, nil)

	for _, s := range []Screen{ScreenProfile, ScreenCreate, ScreenChat, ScreenCreateWish, ScreenCreateTask, ScreenAdmin} {
		tr := ts.coord.Navigate(ctx, s, nil)
		assert.True(t, tr.AuthRequired, s)
		assert.False(t, tr.Pushed, s)
		assert.Equal(t, ScreenMarketplace, tr.Screen, s)
	}
	assert.Equal(t, 2, ts.history.Len())

	ts.session.authenticated = true
	tr := ts.coord.Navigate(ctx, ScreenAdmin, nil)
	assert.Equal(t, ScreenHome, tr.Screen, "signed-in non-admins are turned away")
	require.Len(t, tr.Toasts, 1)

	ts.session.admin = true
	assert.Equal(t, ScreenAdmin, ts.coord.Navigate(ctx, ScreenAdmin, nil).Screen)
}

func TestStart_DeepLinkToListing(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	ts := setupCoordinatorTestSuite(t, "/listing/"+id, false)
	ts.listings.On("Exists", ctx, id).Return(true, nil).Once()
	tr := ts.coord.Start(ctx)
	assert.Equal(t, ScreenListing, tr.Screen)
	assert.Equal(t, ListingPayload{ListingID: id}, tr.Payload)
	ts.listings.AssertExpectations(t)

	ts = setupCoordinatorTestSuite(t, "/listing/"+id, false)
	ts.listings.On("Exists", ctx, id).Return(false, nil).Once()
	tr = ts.coord.Start(ctx)
	assert.Equal(t, ScreenHome, tr.Screen)
	require.Len(t, tr.Toasts, 1)
	e, _ := ts.history.Current()
	assert.True(t, e.State.Sentinel, "redirect keeps the sentinel")
	assert.Equal(t, "/", e.Path)

	ts = setupCoordinatorTestSuite(t, "/edit-listing/"+id, true)
	ts.listings.On("Exists", ctx, id).Return(false, errors.New("network")).Once()
	tr = ts.coord.Start(ctx)
	assert.Equal(t, ScreenHome, tr.Screen)
	assert.Equal(t, msgListingLoadFailed, tr.Toasts[0].Message)

	ts = setupCoordinatorTestSuite(t, "/listing/undefined", false)
	tr = ts.coord.Start(ctx)
	assert.Equal(t, ScreenHome, tr.Screen)
	ts.listings.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestBackForward_RestoreFromState(t *testing.T) {
	ctx := context.Background()
	ts := setupCoordinatorTestSuite(t, "/", true)
	taskID := uuid.NewString()

	ts.coord.Navigate(ctx, ScreenTasks, nil)
	ts.coord.Navigate(ctx, ScreenTaskDetail, TaskPayload{TaskID: taskID})
	ts.coord.Navigate(ctx, ScreenAbout, nil)

	tr := ts.coord.Back(ctx)
	assert.Equal(t, ScreenTaskDetail, tr.Screen)
	assert.Equal(t, TaskPayload{TaskID: taskID}, tr.Payload)
	assert.Equal(t, "/task", tr.Path)
	assert.True(t, tr.ScrollToTop)

	assert.Equal(t, ScreenTasks, ts.coord.Back(ctx).Screen)
	assert.Equal(t, ScreenHome, ts.coord.Back(ctx).Screen, "sentinel absorbs the back press")
	assert.Equal(t, ScreenHome, ts.coord.Back(ctx).Screen, "nothing before the sentinel")
	assert.Equal(t, 0, ts.history.Index())

	assert.Equal(t, ScreenTasks, ts.coord.Forward(ctx).Screen)
	assert.Equal(t, 4, ts.history.Len())

	ts.coord.Navigate(ctx, ScreenFAQ, nil)
	assert.Equal(t, 3, ts.history.Len(), "push drops forward entries")
}

func TestPopState_GuardedScreenAsGuestGoesHome(t *testing.T) {
	ctx := context.Background()
	ts := setupCoordinatorTestSuite(t, "/", true)
	ts.coord.Navigate(ctx, ScreenProfile, nil)
	ts.coord.Navigate(ctx, ScreenAbout, nil)

	ts.session.authenticated = false
	tr := ts.coord.PopState(ctx, HistoryEntry{Path: "/profile", State: HistoryState{Screen: ScreenProfile}})
	assert.Equal(t, ScreenHome, tr.Screen)
	assert.True(t, tr.AuthRequired)
	assert.Equal(t, 1, ts.history.Index(), "adjacent entry was followed")
}

func TestPopState_ListingFromPathOnly(t *testing.T) {
	ctx := context.Background()
	ts := setupCoordinatorTestSuite(t, "/", false)
	id := uuid.NewString()
	ts.listings.On("Exists", ctx, id).Return(true, nil)

	tr := ts.coord.PopState(ctx, HistoryEntry{Path: "/listing/" + id})
	assert.Equal(t, ScreenListing, tr.Screen)
	assert.Equal(t, "/listing/"+id, tr.Path)
}

func TestRouteTableAndPaths(t *testing.T) {
	routes := RouteTable()
	require.Len(t, routes, len(screenOrder))
	byScreen := map[Screen]Route{}
	for _, r := range routes {
		byScreen[r.Screen] = r
	}
	assert.Equal(t, "/listing/:id", byScreen[ScreenListing].Path)
	assert.Equal(t, "/edit-listing/:id", byScreen[ScreenEdit].Path)
	assert.True(t, byScreen[ScreenCreateWish].RequiresSession)
	assert.False(t, byScreen[ScreenMarketplace].RequiresSession)

	for _, tc := range []struct {
		path   string
		screen Screen
		id     string
		ok     bool
	}{
		{"/", ScreenHome, "", true},
		{"", ScreenHome, "", true},
		{"/marketplace/", ScreenMarketplace, "", true},
		{"/privacy?ref=footer", ScreenPrivacy, "", true},
		{"/listing/abc", ScreenListing, "abc", true},
		{"/edit-listing/abc", ScreenEdit, "abc", true},
		{"/listing/abc/extra", ScreenHome, "", false},
		{"/nope", ScreenHome, "", false},
	} {
		s, id, ok := ScreenForPath(tc.path)
		assert.Equal(t, tc.screen, s, tc.path)
		assert.Equal(t, tc.id, id, tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
	}
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(uuid.NewString()))
	for _, id := range []string{"", " ", "undefined", "null", "123"} {
		assert.False(t, ValidID(id), id)
	}
}
