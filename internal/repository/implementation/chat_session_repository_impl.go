package implementation

import (
	"context"
	"errors"
	"fmt"

	"live-chat-be/internal/entity"
	"live-chat-be/internal/mapper"
	"live-chat-be/internal/model"
	"live-chat-be/internal/repository/contract"
	"live-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) Update(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

// GetOrCreate relies on the unique index on room_id: the insert is a no-op for
// the loser of a concurrent first-connect, and both callers read back the same
// row afterwards.
func (r *ChatSessionRepositoryImpl) GetOrCreate(ctx context.Context, roomId string, status string) (*entity.ChatSession, bool, error) {
	m := &model.ChatSession{
		Id:     uuid.New(),
		RoomId: roomId,
		Status: status,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return nil, false, fmt.Errorf("get-or-create session for room %s: %w", roomId, res.Error)
	}
	created := res.RowsAffected > 0

	var found model.ChatSession
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomId).First(&found).Error; err != nil {
		return nil, false, fmt.Errorf("load session for room %s: %w", roomId, err)
	}
	return r.mapper.ChatSessionToEntity(&found), created, nil
}

// LinkConversation performs a compare-and-set on the one-to-one conversation
// link. A zero rows-affected result means another writer linked first; the
// caller gets the row as it stands either way.
func (r *ChatSessionRepositoryImpl) LinkConversation(ctx context.Context, sessionId uuid.UUID, conversationId uuid.UUID) (*entity.ChatSession, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND conversation_id IS NULL", sessionId).
		Update("conversation_id", conversationId)
	if res.Error != nil {
		return nil, fmt.Errorf("link conversation on session %s: %w", sessionId, res.Error)
	}

	var found model.ChatSession
	if err := r.db.WithContext(ctx).Where("id = ?", sessionId).First(&found).Error; err != nil {
		return nil, fmt.Errorf("reload session %s: %w", sessionId, err)
	}
	return r.mapper.ChatSessionToEntity(&found), nil
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatSessionToEntity(m)
	}
	return entities, nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
