package setting

import (
	"context"
	"errors"
	"testing"

	"Harina-Web-Backend/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSettingRepository struct {
	settings map[string]*entities.Setting
	getErr   error
}

func newFakeSettingRepository() *fakeSettingRepository {
	return &fakeSettingRepository{settings: map[string]*entities.Setting{}}
}

func (f *fakeSettingRepository) Get(_ context.Context, key string) (*entities.Setting, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	setting, ok := f.settings[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return setting, nil
}

func (f *fakeSettingRepository) Upsert(_ context.Context, setting *entities.Setting) error {
	f.settings[setting.Key] = setting
	return nil
}

func TestGetProcessingPrompt_UnsetIsEmpty(t *testing.T) {
	service := NewSettingService(newFakeSettingRepository())

	prompt, err := service.GetProcessingPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", prompt)
}

func TestGetProcessingPrompt_RepositoryError(t *testing.T) {
	repo := newFakeSettingRepository()
	repo.getErr = errors.New("connection refused")
	service := NewSettingService(repo)

	_, err := service.GetProcessingPrompt(context.Background())
	assert.Error(t, err)
}

func TestUpdateProcessingPrompt_RoundTrip(t *testing.T) {
	repo := newFakeSettingRepository()
	service := NewSettingService(repo)

	saved, err := service.UpdateProcessingPrompt(context.Background(), "  group items by aisle  ")
	require.NoError(t, err)
	assert.Equal(t, "group items by aisle", saved)

	prompt, err := service.GetProcessingPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "group items by aisle", prompt)
}

func TestUpdateProcessingPrompt_ClearsWithBlank(t *testing.T) {
	repo := newFakeSettingRepository()
	service := NewSettingService(repo)

	_, err := service.UpdateProcessingPrompt(context.Background(), "old prompt")
	require.NoError(t, err)

	saved, err := service.UpdateProcessingPrompt(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "", saved)

	prompt, err := service.GetProcessingPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", prompt)
}
