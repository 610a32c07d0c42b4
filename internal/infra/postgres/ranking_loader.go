// Package postgres reads aggregates straight from Postgres with pgx, bypassing
// the ORM for the hot leaderboard query.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizmaker-service/internal/domain"
)

const rankingsQuery = `SELECT respondent, SUM(score)::bigint FROM scores GROUP BY respondent`

// RankingLoader sums attempt scores per respondent.
type RankingLoader struct {
	pool *pgxpool.Pool
}

func NewRankingLoader(pool *pgxpool.Pool) *RankingLoader {
	return &RankingLoader{pool: pool}
}

func (l *RankingLoader) Rankings(ctx context.Context) ([]domain.RankingEntry, error) {
	rows, err := l.pool.Query(ctx, rankingsQuery)
	if err != nil {
		return nil, fmt.Errorf("load rankings: %w", err)
	}
	defer rows.Close()

	entries := []domain.RankingEntry{}
	for rows.Next() {
		var (
			respondent string
			total      int64
		)
		if err := rows.Scan(&respondent, &total); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		entries = append(entries, domain.RankingEntry{Respondent: respondent, TotalScore: int(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rankings: %w", err)
	}
	domain.SortRankings(entries)
	return entries, nil
}
