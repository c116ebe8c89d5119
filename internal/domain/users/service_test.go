package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gatherline/server/internal/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	byEmail map[string]User
	counts  map[string]ActivityCounts
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byEmail: make(map[string]User),
		counts:  make(map[string]ActivityCounts),
	}
}

func (r *fakeRepo) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return User{}, ErrEmailTaken
	}
	user.CreatedAt = time.Now()
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) Counts(_ context.Context, userID string) (ActivityCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[userID], nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	welcomes []string
}

func (n *fakeNotifier) DispatchWelcome(to, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, to)
}

func newTestService(repo *fakeRepo, notifier *fakeNotifier) *Service {
	tokens := auth.NewJWTManager("test-secret", time.Hour, "gatherline")
	return NewService(repo, tokens, notifier, zerolog.Nop())
}

func TestSignupDefaultsToAttendee(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	result, err := svc.Signup(context.Background(), SignupParams{
		Email:    "alice@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, auth.RoleAttendee, result.User.Role)
	require.Equal(t, []string{"alice@example.com"}, notifier.welcomes)
}

func TestSignupNormalizesEmailAndRole(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{})

	result, err := svc.Signup(context.Background(), SignupParams{
		Email:    "  Bob@Example.COM ",
		Password: "hunter22",
		Role:     "organizer",
	})

	require.NoError(t, err)
	require.Equal(t, "bob@example.com", result.User.Email)
	require.Equal(t, auth.RoleOrganizer, result.User.Role)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{})
	ctx := context.Background()

	cases := []struct {
		name   string
		params SignupParams
	}{
		{"missing email", SignupParams{Password: "hunter22"}},
		{"missing password", SignupParams{Email: "alice@example.com"}},
		{"short password", SignupParams{Email: "alice@example.com", Password: "abc"}},
		{"bad email", SignupParams{Email: "not-an-email", Password: "hunter22"}},
		{"bad role", SignupParams{Email: "alice@example.com", Password: "hunter22", Role: "WIZARD"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.params)
			var validationErr ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupParams{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupParams{Email: "ALICE@example.com", Password: "password"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupParams{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "alice@example.com", result.User.Email)
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupParams{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email returns the same error as a wrong password.
	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfileIncludesCounts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeNotifier{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, SignupParams{Email: "alice@example.com", Password: "hunter22", Role: "ORGANIZER"})
	require.NoError(t, err)

	repo.counts[result.User.ID] = ActivityCounts{OrganizedEvents: 3, RSVPs: 5}

	profile, err := svc.Profile(ctx, result.User.ID)
	require.NoError(t, err)
	require.Equal(t, 3, profile.OrganizedEvents)
	require.Equal(t, 5, profile.RSVPs)
	require.Equal(t, auth.RoleOrganizer, profile.Role)
}

func TestProfileNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{})

	_, err := svc.Profile(context.Background(), "missing-id")
	require.ErrorIs(t, err, ErrNotFound)
}
