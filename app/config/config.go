package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        Log        `yaml:"log"`
	Telegram   Telegram   `yaml:"telegram"`
	OpenRouter OpenRouter `yaml:"openrouter"`
	Whisper    Whisper    `yaml:"whisper"`
	Sheets     Sheets     `yaml:"sheets"`
}

type Telegram struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
}

type OpenRouter struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// API token
	Token string `yaml:"token" example:"sk-or-v1-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model used to interpret messages
	Model string `yaml:"model" example:"mistralai/mixtral-8x7b-instruct" validate:"required"`
	// Sampling temperature
	Temperature float32 `yaml:"temperature" example:"0.2"`
}

type Whisper struct {
	// Transcription endpoint accepting a wav file upload
	URL string `yaml:"url" example:"https://openwhisper.example.dev/transcribe" validate:"required"`
}

type Sheets struct {
	// Path to the service account credentials file
	CredentialsFile string `yaml:"credentials_file" example:"credentials.json" validate:"required"`
	// Spreadsheet to append batch rows to
	SpreadsheetID string `yaml:"spreadsheet_id" example:"1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" validate:"required"`
	// Worksheet name inside the spreadsheet
	SheetName string `yaml:"sheet_name" example:"SoapWeights"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.OpenRouter.BaseURL == "" {
		result.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if result.OpenRouter.Model == "" {
		result.OpenRouter.Model = "mistralai/mixtral-8x7b-instruct"
	}
	if result.OpenRouter.Temperature == 0 {
		result.OpenRouter.Temperature = 0.2
	}
	if result.Sheets.SheetName == "" {
		result.Sheets.SheetName = "SoapWeights"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
