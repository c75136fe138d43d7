package tenant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bukudapur/bukudapur/internal/shared"
)

type memoryRepo struct {
	byCode map[string]AccessCode
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byCode: make(map[string]AccessCode)}
}

func (r *memoryRepo) GetByCode(ctx context.Context, code string) (AccessCode, error) {
	if ac, ok := r.byCode[code]; ok {
		return ac, nil
	}
	return AccessCode{}, shared.ErrNotFound
}

func (r *memoryRepo) Insert(ctx context.Context, ac AccessCode) (AccessCode, error) {
	if _, ok := r.byCode[ac.Code]; ok {
		return AccessCode{}, shared.ErrDuplicate
	}
	r.nextID++
	ac.ID = r.nextID
	ac.CreatedAt = time.Now()
	r.byCode[ac.Code] = ac
	return ac, nil
}

func (r *memoryRepo) Update(ctx context.Context, ac AccessCode) error {
	for code, existing := range r.byCode {
		if existing.ID == ac.ID {
			r.byCode[code] = ac
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, limit int) ([]AccessCode, error) {
	out := make([]AccessCode, 0, len(r.byCode))
	for _, ac := range r.byCode {
		out = append(out, ac)
	}
	return out, nil
}

func TestCreateIssuesPrefixedCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	ac, err := svc.Create(ctx, CreateInput{KitchenName: "Dapur Melati", Days: 30, Status: StatusTrial})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ac.Code, "BDMBG-"))
	require.Len(t, ac.Code, len("BDMBG-")+8)
	require.Equal(t, StatusTrial, ac.Status)
	require.WithinDuration(t, ac.StartAt.AddDate(0, 0, 30), ac.ExpiresAt, time.Second)
}

func TestResolveLazilyExpires(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	ac, err := svc.Create(ctx, CreateInput{KitchenName: "Dapur Mawar", Days: 7, Status: StatusActive})
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, ac.Code)
	require.NoError(t, err)
	require.Equal(t, ac.ID, resolved.ID)

	svc.WithNow(func() time.Time { return ac.ExpiresAt.Add(time.Hour) })
	_, err = svc.Resolve(ctx, ac.Code)
	require.ErrorIs(t, err, shared.ErrTenantExpired)

	// The transition is persisted and irreversible on later resolves even
	// with the original clock.
	svc.WithNow(time.Now)
	stored, err := repo.GetByCode(ctx, ac.Code)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, stored.Status)
}

func TestExtendReactivatesExpiredCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	ac, err := svc.Create(ctx, CreateInput{KitchenName: "Dapur Anggrek", Days: 1, Status: StatusActive})
	require.NoError(t, err)

	expired, err := svc.Expire(ctx, ac.Code)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, expired.Status)

	extended, err := svc.Extend(ctx, ac.Code, 14)
	require.NoError(t, err)
	require.Equal(t, StatusActive, extended.Status)
	require.True(t, extended.ExpiresAt.After(time.Now().AddDate(0, 0, 13)))

	_, err = svc.Resolve(ctx, strings.ToLower(ac.Code))
	require.NoError(t, err)
}
