package users

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetUserByEmailOrWallet(ctx context.Context, email, walletAddress string) (*User, error) {
	args := m.Called(ctx, email, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetUserByIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*User, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) AddRewardPoints(ctx context.Context, userID uuid.UUID, points int64) error {
	args := m.Called(ctx, userID, points)
	return args.Error(0)
}

func (m *mockRepository) ResetRewardPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

func fakeLogin() LoginCommand {
	return LoginCommand{
		Name:          gofakeit.Name(),
		Email:         gofakeit.Email(),
		WalletAddress: "0x" + gofakeit.DigitN(40),
	}
}

func TestLogin_CreatesUserOnFirstContact(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)
	cmd := fakeLogin()

	repo.On("GetUserByEmailOrWallet", mock.Anything, cmd.Email, cmd.WalletAddress).Return(nil, pgx.ErrNoRows)
	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*users.User")).Return(nil)

	user, created, err := service.Login(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, cmd.Email, user.Email)
	assert.Equal(t, cmd.WalletAddress, user.WalletAddress)
	assert.Zero(t, user.RewardsEarned)
}

func TestLogin_ReturnsExistingUser(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)
	cmd := fakeLogin()

	existing := &User{
		ID:            uuid.New(),
		Name:          cmd.Name,
		Email:         cmd.Email,
		WalletAddress: cmd.WalletAddress,
		RewardsEarned: 120,
	}
	repo.On("GetUserByEmailOrWallet", mock.Anything, cmd.Email, cmd.WalletAddress).Return(existing, nil)

	user, created, err := service.Login(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, user.ID)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestLogin_RequiresFullProfile(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	tests := []struct {
		name   string
		mutate func(*LoginCommand)
	}{
		{name: "missing name", mutate: func(c *LoginCommand) { c.Name = "" }},
		{name: "missing email", mutate: func(c *LoginCommand) { c.Email = "" }},
		{name: "missing wallet", mutate: func(c *LoginCommand) { c.WalletAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := fakeLogin()
			tt.mutate(&cmd)

			_, _, err := service.Login(context.Background(), cmd)
			assert.ErrorIs(t, err, ErrMissingProfile)
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	userID := uuid.New()
	repo.On("GetUserByID", mock.Anything, userID).Return(nil, pgx.ErrNoRows)

	_, err := service.GetUser(context.Background(), userID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
