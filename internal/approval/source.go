package approval

import (
	"context"
	"fmt"

	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/model"

	"gorm.io/gorm"
)

// DBSource reads the approver roster from the database table maintained by
// the external directory import.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) Load(ctx context.Context) ([]Approver, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var rows []model.Approver
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load approver roster: %w", err)
	}

	roster := make([]Approver, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, Approver{
			ID:         row.ApproverID,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Department: row.Department,
		})
	}
	return roster, nil
}
