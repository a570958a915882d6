package domain

var (
	MessageSuccessGetPrompt    = "processing prompt retrieved successfully"
	MessageSuccessUpdatePrompt = "processing prompt updated successfully"

	MessageFailedGetPrompt    = "failed to retrieve processing prompt"
	MessageFailedUpdatePrompt = "failed to update processing prompt"
)

type (
	UpdateProcessingPromptRequest struct {
		Prompt string `json:"prompt"`
	}

	ProcessingPromptResponse struct {
		Prompt string `json:"prompt"`
	}
)
