package mysql

import (
	"fmt"

	"gorm.io/gorm"

	"olive-chat-server/internal/model"
)

// Migrate brings the schema up to date before the server accepts traffic.
// Every step is required: a failure here aborts startup instead of being
// logged and ignored. The image_id column is handled explicitly because the
// messages table predates image support in older deployments.
func Migrate(db *gorm.DB) error {
	migrator := db.Migrator()

	if !migrator.HasTable(&model.Message{}) {
		if err := migrator.CreateTable(&model.Message{}); err != nil {
			return fmt.Errorf("create messages table failed: %w", err)
		}
	} else if !migrator.HasColumn(&model.Message{}, "image_id") {
		if err := migrator.AddColumn(&model.Message{}, "image_id"); err != nil {
			return fmt.Errorf("add image_id column failed: %w", err)
		}
	}

	if !migrator.HasTable(&model.Image{}) {
		if err := migrator.CreateTable(&model.Image{}); err != nil {
			return fmt.Errorf("create images table failed: %w", err)
		}
	}

	return nil
}
