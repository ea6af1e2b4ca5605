// Package directory reads the public team listing, either straight from the
// team table or through the backend API.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/resource"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMemberNotFound = errors.New("team member not found")

// Reader lists team members in display order.
type Reader interface {
	ListTeam(ctx context.Context) ([]resource.TeamMember, error)
	GetMember(ctx context.Context, id int) (*resource.TeamMember, error)
}

// DBInterface is the subset of pgxpool.Pool used by Repository.
type DBInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads the team table.
type Repository struct {
	db DBInterface
}

func NewRepository(db DBInterface) *Repository {
	return &Repository{db: db}
}

// Open connects a pool and checks it with a ping.
func Open(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to team database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging team database: %w", err)
	}
	return pool, nil
}

func selectMembers() squirrel.SelectBuilder {
	return squirrel.Select(
		"id",
		"name",
		"role",
		"COALESCE(bio, '') AS bio",
		"COALESCE(photo_url, '') AS photo_url",
		"COALESCE(linkedin_url, '') AS linkedin_url",
		"COALESCE(github_url, '') AS github_url",
	).From("team").PlaceholderFormat(squirrel.Dollar)
}

func (r *Repository) ListTeam(ctx context.Context) ([]resource.TeamMember, error) {
	query, args, err := selectMembers().OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	members := []resource.TeamMember{}
	if err := pgxscan.Select(ctx, r.db, &members, query, args...); err != nil {
		return nil, fmt.Errorf("scanning team: %w", err)
	}
	return members, nil
}

func (r *Repository) GetMember(ctx context.Context, id int) (*resource.TeamMember, error) {
	query, args, err := selectMembers().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var member resource.TeamMember
	if err := pgxscan.Get(ctx, r.db, &member, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("scanning team member: %w", err)
	}
	return &member, nil
}

// APIReader serves the team listing from /corporate/.
type APIReader struct {
	team *api.TeamService
}

func FromAPI(client *api.Client) *APIReader {
	return &APIReader{team: client.Team()}
}

func (r *APIReader) ListTeam(ctx context.Context) ([]resource.TeamMember, error) {
	return r.team.List(ctx)
}

func (r *APIReader) GetMember(ctx context.Context, id int) (*resource.TeamMember, error) {
	m, err := r.team.Get(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return nil, ErrMemberNotFound
	}
	return m, err
}
