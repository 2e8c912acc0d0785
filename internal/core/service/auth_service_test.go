package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
	"github.com/bakeryflow/identity/internal/core/token"
	"github.com/bakeryflow/identity/internal/pkg/hash"
)

// stubUserRepo is an in-memory credential store shared by the service tests.
type stubUserRepo struct {
	byID map[string]*domain.User
	seq  int
	// failWith, when set, makes every operation return this error.
	failWith error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.RoleName(nil), u.Roles...)
	if u.LastLogin != nil {
		t := *u.LastLogin
		clone.LastLogin = &t
	}
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	for _, u := range r.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	for _, u := range r.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) ExistsByEmployeeID(_ context.Context, employeeID string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	for _, u := range r.byID {
		if u.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) List(_ context.Context, opts ports.ListOptions) (*ports.UserPage, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.pageOf(r.all(), opts), nil
}

func (r *stubUserRepo) Search(_ context.Context, query string, opts ports.ListOptions) (*ports.UserPage, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	q := strings.ToLower(query)
	var matched []*domain.User
	for _, u := range r.all() {
		haystack := strings.ToLower(u.Username + " " + u.Email + " " + u.FirstName + " " + u.LastName)
		if strings.Contains(haystack, q) {
			matched = append(matched, u)
		}
	}
	return r.pageOf(matched, opts), nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, role domain.RoleName) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	var n int64
	for _, u := range r.byID {
		if u.HasRole(role) {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.NewConflict("username")
		}
		if u.Email == user.Email {
			return nil, domain.NewConflict("email")
		}
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.seq)
	r.byID[stored.ID] = stored
	user.ID = stored.ID
	return cloneUser(stored), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) all() []*domain.User {
	users := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

func (r *stubUserRepo) pageOf(users []*domain.User, opts ports.ListOptions) *ports.UserPage {
	total := int64(len(users))
	if opts.SortDesc {
		for i, j := 0, len(users)-1; i < j; i, j = i+1, j-1 {
			users[i], users[j] = users[j], users[i]
		}
	}
	start := opts.Page * opts.Size
	if start > len(users) {
		start = len(users)
	}
	end := start + opts.Size
	if opts.Size <= 0 || end > len(users) {
		end = len(users)
	}
	return &ports.UserPage{Users: users[start:end], Total: total}
}

// stubThrottle is a LoginThrottle with canned behaviour. It records the last
// key it was asked about.
type stubThrottle struct {
	denied  bool
	err     error
	resets  int
	lastKey string
}

func (t *stubThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.lastKey = key
	return !t.denied, t.err
}

func (t *stubThrottle) Reset(_ context.Context, key string) error {
	t.lastKey = key
	t.resets++
	return nil
}

func newTestAuthService(repo *stubUserRepo) (*AuthService, *token.Codec) {
	codec := token.NewCodec(token.Config{Secret: "test-secret"})
	return NewAuthService(repo, codec, nil, zerolog.Nop()), codec
}

func seedUser(t *testing.T, repo *stubUserRepo, username, password string, roles ...domain.RoleName) *domain.User {
	t.Helper()
	pwHash, err := hash.Password(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if len(roles) == 0 {
		roles = []domain.RoleName{domain.RoleBaker}
	}
	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		FirstName:    "Test",
		LastName:     "User",
		Enabled:      true,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := repo.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return created
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newTestAuthService(repo)
	seedUser(t, repo, "carol", "s3cret-pass", domain.RoleAdmin)

	result, err := svc.Authenticate(context.Background(), "carol", "s3cret-pass", "", false)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", result)
	}
	if result.TokenType != "Bearer" {
		t.Fatalf("unexpected token type: %s", result.TokenType)
	}
	if result.ExpiresIn <= 0 {
		t.Fatalf("expected positive expiresIn, got %d", result.ExpiresIn)
	}

	claims, err := codec.Decode(result.AccessToken)
	if err != nil {
		t.Fatalf("decode access token: %v", err)
	}
	if claims.TokenType != token.KindAccess {
		t.Fatalf("expected access token, got %s", claims.TokenType)
	}
	if claims.Subject != "carol" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "ADMIN" {
		t.Fatalf("unexpected roles in claims: %v", claims.Roles)
	}

	if !codec.IsRefresh(result.RefreshToken) {
		t.Fatalf("expected refresh token kind")
	}
}

func TestAuthService_Authenticate_RecordsLastLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	created := seedUser(t, repo, "dave", "goodpass1")

	if _, err := svc.Authenticate(context.Background(), "dave", "goodpass1", "", false); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	stored := repo.byID[created.ID]
	if stored.LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestAuthService_Authenticate_UniformFailure(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	seedUser(t, repo, "erin", "goodpass1")

	disabled := seedUser(t, repo, "frank", "goodpass1")
	disabled.Enabled = false
	repo.byID[disabled.ID] = disabled

	cases := []struct {
		name               string
		username, password string
	}{
		{"wrong password", "erin", "badpass"},
		{"unknown user", "ghost", "whatever"},
		{"disabled account", "frank", "goodpass1"},
		{"empty credentials", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.username, tc.password, "", false)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_Authenticate_StoreFailureIsNotDistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	repo.failWith = errors.New("connection reset")

	_, err := svc.Authenticate(context.Background(), "carol", "whatever", "", false)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_Throttled(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "gina", "goodpass1")

	codec := token.NewCodec(token.Config{Secret: "test-secret"})
	throttle := &stubThrottle{denied: true}
	svc := NewAuthService(repo, codec, throttle, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "gina", "goodpass1", "", false)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for throttled login, got %v", err)
	}
}

func TestAuthService_Authenticate_ThrottleBackendDownFailsOpen(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "hank", "goodpass1")

	codec := token.NewCodec(token.Config{Secret: "test-secret"})
	throttle := &stubThrottle{err: errors.New("redis unavailable")}
	svc := NewAuthService(repo, codec, throttle, zerolog.Nop())

	if _, err := svc.Authenticate(context.Background(), "hank", "goodpass1", "", false); err != nil {
		t.Fatalf("expected login to succeed when throttle is down, got %v", err)
	}
}

func TestAuthService_Authenticate_ThrottleKeyedByUsernameAndClient(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "iris", "goodpass1")

	codec := token.NewCodec(token.Config{Secret: "test-secret"})
	throttle := &stubThrottle{}
	svc := NewAuthService(repo, codec, throttle, zerolog.Nop())

	// The counter is scoped per username+client pair, so one address
	// hammering a username cannot lock it out for everyone else.
	if _, err := svc.Authenticate(context.Background(), "iris", "goodpass1", "203.0.113.7", false); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if throttle.lastKey != "iris@203.0.113.7" {
		t.Fatalf("unexpected throttle key: %q", throttle.lastKey)
	}

	// Without a client address the key degrades to the username alone.
	if _, err := svc.Authenticate(context.Background(), "iris", "goodpass1", "", false); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if throttle.lastKey != "iris" {
		t.Fatalf("unexpected throttle key: %q", throttle.lastKey)
	}
}

func TestAuthService_Availability(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	seedUser(t, repo, "nora", "goodpass1")

	free, err := svc.UsernameAvailable(context.Background(), "nora")
	if err != nil {
		t.Fatalf("check username failed: %v", err)
	}
	if free {
		t.Fatalf("taken username reported as available")
	}

	free, err = svc.UsernameAvailable(context.Background(), "newcomer")
	if err != nil {
		t.Fatalf("check username failed: %v", err)
	}
	if !free {
		t.Fatalf("fresh username reported as taken")
	}

	free, err = svc.EmailAvailable(context.Background(), "nora@example.com")
	if err != nil {
		t.Fatalf("check email failed: %v", err)
	}
	if free {
		t.Fatalf("taken email reported as available")
	}

	free, err = svc.EmailAvailable(context.Background(), "fresh@example.com")
	if err != nil {
		t.Fatalf("check email failed: %v", err)
	}
	if !free {
		t.Fatalf("fresh email reported as taken")
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	result, err := svc.Register(context.Background(), ports.RegisterInput{
		Username:  "u1",
		Email:     "u1@x.com",
		Password:  "secret1-long",
		FirstName: "Una",
		LastName:  "One",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected auto-login tokens, got %+v", result)
	}
	if len(result.User.Roles) != 1 || result.User.Roles[0] != string(domain.DefaultRole) {
		t.Fatalf("expected default role, got %v", result.User.Roles)
	}
	if !result.User.Enabled {
		t.Fatalf("expected new user to be enabled")
	}

	stored, err := repo.FindByUsername(context.Background(), "u1")
	if err != nil {
		t.Fatalf("stored user not found: %v", err)
	}
	if stored.PasswordHash == "secret1-long" {
		t.Fatalf("expected password to be hashed")
	}
	if !hash.Verify("secret1-long", stored.PasswordHash) {
		t.Fatalf("stored hash does not match password")
	}
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "u1", Email: "u1@x.com", Password: "secret1-long",
	}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	var conflict *domain.ConflictError

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "u1", Email: "other@x.com", Password: "secret1-long",
	})
	if !errors.As(err, &conflict) || conflict.Field != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}

	_, err = svc.Register(context.Background(), ports.RegisterInput{
		Username: "u2", Email: "u1@x.com", Password: "secret1-long",
	})
	if !errors.As(err, &conflict) || conflict.Field != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestAuthService_Register_ThenAuthenticate(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "rose", Email: "rose@x.com", Password: "petals-and-thorns",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Authenticate(context.Background(), "rose", "petals-and-thorns", "", false)
	if err != nil {
		t.Fatalf("authenticate after register failed: %v", err)
	}
	if result.User == nil || result.User.Username != "rose" {
		t.Fatalf("unexpected user view: %+v", result.User)
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	seedUser(t, repo, "ivan", "goodpass1")

	login, err := svc.Authenticate(context.Background(), "ivan", "goodpass1", "", false)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	// Kind checking is enforced: a perfectly valid access token must not
	// pass as a refresh token.
	if _, err := svc.Refresh(context.Background(), login.AccessToken); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestAuthService_Refresh_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newTestAuthService(repo)
	created := seedUser(t, repo, "judy", "goodpass1")

	login, err := svc.Authenticate(context.Background(), "judy", "goodpass1", "", false)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	// Role changes after login are picked up on refresh: staleness
	// self-heals here.
	stored := repo.byID[created.ID]
	stored.Roles = append(stored.Roles, domain.RoleManager)
	repo.byID[created.ID] = stored

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatalf("expected new access token")
	}
	if refreshed.RefreshToken != "" {
		t.Fatalf("refresh tokens are not rotated, got %q", refreshed.RefreshToken)
	}

	claims, err := codec.Decode(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("decode refreshed token: %v", err)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("expected refreshed roles snapshot, got %v", claims.Roles)
	}
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	seedUser(t, repo, "kate", "old-password1")

	if err := svc.ChangePassword(context.Background(), "kate", "wrong", "new-password1"); !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), "kate", "old-password1", "new-password1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "kate", "old-password1", "", false); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "kate", "new-password1", "", false); err != nil {
		t.Fatalf("new password should work, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newTestAuthService(repo)
	seedUser(t, repo, "liam", "goodpass1")

	login, err := svc.Authenticate(context.Background(), "liam", "goodpass1", "", false)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if err := svc.Logout(context.Background(), "liam"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	// Logout is bookkeeping only: issued tokens stay valid until they
	// expire naturally.
	if _, err := codec.Decode(login.AccessToken); err != nil {
		t.Fatalf("access token should survive logout, got %v", err)
	}
}
