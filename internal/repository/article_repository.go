package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

// ArticleRepository defines persistence access for knowledge articles.
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeArticle, error)
	SearchByText(ctx context.Context, term string, limit int) ([]domain.KnowledgeArticle, error)
}

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository returns a Postgres-backed implementation.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	const query = `
        SELECT id, number, title, snippet, url, workflow_state, visibility_role, view_count
        FROM kb_articles WHERE id=$1`

	var article domain.KnowledgeArticle
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.Number,
		&article.Title,
		&article.Snippet,
		&article.URL,
		&article.WorkflowState,
		&article.VisibilityRole,
		&article.ViewCount,
	); err != nil {
		return nil, err
	}
	return &article, nil
}

// SearchByText is the literal contains fallback used when the semantic
// provider is unavailable. Results are ordered by view count as a
// popularity proxy.
func (r *articleRepository) SearchByText(ctx context.Context, term string, limit int) ([]domain.KnowledgeArticle, error) {
	const query = `
        SELECT id, number, title, snippet, url, workflow_state, visibility_role, view_count
        FROM kb_articles
        WHERE workflow_state='published'
          AND (title ILIKE '%' || $1 || '%' OR body ILIKE '%' || $1 || '%')
        ORDER BY view_count DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.KnowledgeArticle
	for rows.Next() {
		var article domain.KnowledgeArticle
		if err := rows.Scan(
			&article.ID,
			&article.Number,
			&article.Title,
			&article.Snippet,
			&article.URL,
			&article.WorkflowState,
			&article.VisibilityRole,
			&article.ViewCount,
		); err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}
