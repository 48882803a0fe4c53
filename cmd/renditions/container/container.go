package container

import (
	"fmt"

	"github.com/mediaforge/renditions/cmd/renditions/repository"
	"github.com/mediaforge/renditions/cmd/renditions/service"
	"github.com/mediaforge/renditions/common/bootstrap"
	"github.com/mediaforge/renditions/common/validation"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components

	MediaRepo    *repository.MediaRepository
	MediaService *service.MediaService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	mediaRepo := repository.NewMediaRepository(components.DB)

	rules, err := uploadRules(components)
	if err != nil {
		return nil, err
	}

	mediaService := service.NewMediaService(
		mediaRepo,
		components.Attachments,
		components.Cache,
		components.Logger,
		service.DefaultUploadOptions(components.Config.Imaging.Folder),
		rules...,
	)

	return &Container{
		Components:   components,
		MediaRepo:    mediaRepo,
		MediaService: mediaService,
	}, nil
}

// uploadRules builds the validation chain from configuration. An
// invalid expression is a deployment error and fails startup.
func uploadRules(components *bootstrap.Components) ([]validation.Rule, error) {
	expr := components.Config.Imaging.UploadRule
	if expr == "" {
		return nil, nil
	}

	rule, err := validation.NewExpressionRule(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid upload rule %q: %w", expr, err)
	}

	components.Logger.Info("upload rule active", "expression", expr)
	return []validation.Rule{rule}, nil
}
