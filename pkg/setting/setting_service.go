package setting

import (
	"Harina-Web-Backend/entities"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

const processingPromptKey = "processing_prompt"

type (
	SettingService interface {
		GetProcessingPrompt(ctx context.Context) (string, error)
		UpdateProcessingPrompt(ctx context.Context, prompt string) (string, error)
	}

	settingService struct {
		settingRepository SettingRepository
	}
)

func NewSettingService(settingRepository SettingRepository) SettingService {
	return &settingService{settingRepository: settingRepository}
}

func (s *settingService) GetProcessingPrompt(ctx context.Context) (string, error) {
	setting, err := s.settingRepository.Get(ctx, processingPromptKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (s *settingService) UpdateProcessingPrompt(ctx context.Context, prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if err := s.settingRepository.Upsert(ctx, &entities.Setting{
		Key:   processingPromptKey,
		Value: trimmed,
	}); err != nil {
		return "", err
	}
	return trimmed, nil
}
