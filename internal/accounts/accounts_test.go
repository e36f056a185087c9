package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
	"ghee_back_end/internal/store/memstore"
)

func newTestService(t *testing.T) (*Service, *memstore.Store, *auth.Tokens) {
	t.Helper()
	st := memstore.New()
	tokens := auth.NewTokens("test-secret", time.Hour)
	return New(Deps{Users: st, Admins: st, Products: st, Tokens: tokens}), st, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: " Asha@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	claims, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.TypeUser, claims.Type)

	u := session.Account.(*models.User)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.Password)

	_, err = svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Login(ctx, Credentials{Email: "ASHA@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Email: "asha@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "not-an-email", Password: "123"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Len(t, appErr.Fields, 3)
}

func TestDeactivatedUserIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	u := session.Account.(*models.User)

	active, err := svc.IsActive(ctx, auth.TypeUser, u.ID.Hex())
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.SetUserActive(ctx, u.ID, false)
	require.NoError(t, err)

	active, err = svc.IsActive(ctx, auth.TypeUser, u.ID.Hex())
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.Login(ctx, Credentials{Email: "asha@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	active, err = svc.IsActive(ctx, auth.TypeAdmin, "garbage")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestBootstrapAdminAndLogin(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.BootstrapAdmin(ctx, "Root", "Admin@Ghee.local", "changeme"))
	require.NoError(t, svc.BootstrapAdmin(ctx, "Root", "admin@ghee.local", "changeme"))
	n, err := st.CountAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	session, err := svc.AdminLogin(ctx, Credentials{Email: "admin@ghee.local", Password: "changeme"})
	require.NoError(t, err)
	a := session.Account.(*models.Admin)
	assert.Equal(t, models.RoleSuperAdmin, a.Role)

	stored, err := svc.AdminProfile(ctx, a.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	_, err = svc.AdminLogin(ctx, Credentials{Email: "admin@ghee.local", Password: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	first, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "Ravi", Email: "ravi@example.com", Password: "secret1"})
	require.NoError(t, err)
	id := first.Account.(*models.User).ID

	city := "Flat 2, Pune"
	u, err := svc.UpdateProfile(ctx, id, ProfileInput{Address: &city})
	require.NoError(t, err)
	assert.Equal(t, "Flat 2, Pune", u.Address)
	assert.Equal(t, "Asha", u.Name)

	taken := "RAVI@example.com"
	_, err = svc.UpdateProfile(ctx, id, ProfileInput{Email: &taken})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestFavourites(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	userID := session.Account.(*models.User).ID

	active := &models.Product{Name: "Desi Ghee", IsActive: true}
	hidden := &models.Product{Name: "Old Ghee", IsActive: false}
	require.NoError(t, st.CreateProduct(ctx, active))
	require.NoError(t, st.CreateProduct(ctx, hidden))

	favs, err := svc.AddFavourite(ctx, userID, active.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)

	favs, err = svc.AddFavourite(ctx, userID, active.ID)
	require.NoError(t, err)
	assert.Len(t, favs, 1, "adding twice keeps a single entry")

	_, err = svc.AddFavourite(ctx, userID, hidden.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.AddFavourite(ctx, userID, primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	favs, err = svc.RemoveFavourite(ctx, userID, active.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestListUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"Asha", "Ravi", "Meera"} {
		_, err := svc.Register(ctx, RegisterInput{Name: name, Email: name + "@example.com", Password: "secret1"})
		require.NoError(t, err)
	}

	page, err := svc.ListUsers(ctx, "ravi", store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = svc.ListUsers(ctx, "", store.Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)
}
