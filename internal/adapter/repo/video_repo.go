package repo

import (
	"context"

	"repost/internal/domain"
	"repost/internal/infra"
	"repost/internal/sqlinline"
)

// VideoRepositoryPG implements domain.VideoRepository.
type VideoRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewVideoRepository creates a new video repository backed by PostgreSQL.
func NewVideoRepository(sql infra.SQLExecutor) *VideoRepositoryPG {
	return &VideoRepositoryPG{sql: sql}
}

// Create inserts a new video record and fills identity and timestamps.
func (r *VideoRepositoryPG) Create(ctx context.Context, video *domain.Video) error {
	if video.Status == "" {
		video.Status = domain.VideoStatusPending
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertVideo, video.InstagramURL, video.Status)
	return row.Scan(&video.ID, &video.CreatedAt, &video.UpdatedAt)
}

// GetByID fetches a video by its identifier.
func (r *VideoRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectVideo, id)
	video, err := scanVideo(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return video, nil
}

// List returns videos newest first, optionally filtered by status.
func (r *VideoRepositoryPG) List(ctx context.Context, status domain.VideoStatus, offset, limit int) ([]domain.Video, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectVideos, string(status), offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

// Update persists the pipeline-managed output fields.
func (r *VideoRepositoryPG) Update(ctx context.Context, video *domain.Video) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateVideoOutputs,
		video.ID,
		video.InstagramMediaID,
		video.LocalPath,
		video.StorageURL,
		video.TikTokURL,
		video.TikTokVideoID,
		video.Caption,
		hashtagsOrEmpty(video.Hashtags),
	)
	return err
}

// SetStatus writes status and error message atomically.
func (r *VideoRepositoryPG) SetStatus(ctx context.Context, id int64, status domain.VideoStatus, errMsg string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QSetVideoStatus, id, status, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateContent applies user edits to caption and hashtags. Nil arguments
// leave the corresponding column untouched.
func (r *VideoRepositoryPG) UpdateContent(ctx context.Context, id int64, caption *string, hashtags []string) (*domain.Video, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateVideoContent, id, caption, hashtags)
	video, err := scanVideo(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return video, nil
}

// Delete removes a video; job rows cascade at the schema level.
func (r *VideoRepositoryPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteVideo, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByStatus returns per-status video counts.
func (r *VideoRepositoryPG) CountByStatus(ctx context.Context) (map[domain.VideoStatus]int64, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountVideosByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.VideoStatus]int64)
	for rows.Next() {
		var status domain.VideoStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*domain.Video, error) {
	var video domain.Video
	if err := row.Scan(
		&video.ID,
		&video.InstagramURL,
		&video.InstagramMediaID,
		&video.LocalPath,
		&video.StorageURL,
		&video.TikTokURL,
		&video.TikTokVideoID,
		&video.Caption,
		&video.Hashtags,
		&video.Status,
		&video.ErrorMessage,
		&video.CreatedAt,
		&video.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &video, nil
}

func hashtagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var _ domain.VideoRepository = (*VideoRepositoryPG)(nil)
