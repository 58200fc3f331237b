package repository

import (
	"context"
	"errors"

	"reasoning_backend/models"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/reasoning"

	"gorm.io/gorm"
)

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *models.ReasoningRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) GetByID(ctx context.Context, runID string) (*models.ReasoningRun, error) {
	var run models.ReasoningRun
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", runID).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		logging.Logger.Error("fail GetByID", "runID", runID, "error", err)
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) UpdateStatus(ctx context.Context, runID string, status models.RunStatus) error {
	res := r.db.WithContext(ctx).Model(&models.ReasoningRun{}).Where("id = ?", runID).Update("status", status)
	if res.Error != nil {
		logging.Logger.Error("fail UpdateStatus", "runID", runID, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *runRepository) Finish(ctx context.Context, run *models.ReasoningRun, transcript []reasoning.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ReasoningRun{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
			"status":        run.Status,
			"attempts":      run.Attempts,
			"final_depth":   run.FinalDepth,
			"final_breadth": run.FinalBreadth,
			"nodes":         run.Nodes,
			"error":         run.Error,
			"provider":      run.Provider,
			"model":         run.Model,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRunNotFound
		}
		if err := tx.Where("run_id = ?", run.ID).Delete(&models.ReasoningStep{}).Error; err != nil {
			return err
		}
		if len(transcript) == 0 {
			return nil
		}
		steps := make([]models.ReasoningStep, 0, len(transcript))
		for i, msg := range transcript {
			steps = append(steps, models.ReasoningStep{
				RunID:    run.ID,
				Position: i,
				Role:     string(msg.Role),
				Content:  msg.Content,
			})
		}
		return tx.Create(&steps).Error
	})
}

func (r *runRepository) SetArchiveKey(ctx context.Context, runID string, key string) error {
	return r.db.WithContext(ctx).Model(&models.ReasoningRun{}).Where("id = ?", runID).Update("archive_key", key).Error
}

func (r *runRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.ReasoningRun, error) {
	var res []*models.ReasoningRun
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&res).Error
	if err != nil {
		logging.Logger.Error("fail ListByUser", "userID", userID, "error", err)
		return nil, err
	}
	return res, nil
}
