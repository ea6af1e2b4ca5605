package directory_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/directory"
	"github.com/focitech/focitech/pkg/config"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memberColumns = []string{"id", "name", "role", "bio", "photo_url", "linkedin_url", "github_url"}

func TestRepository_ListTeam(t *testing.T) {
	t.Run("Should list members ordered by id", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := directory.NewRepository(mockPool)
		rows := mockPool.NewRows(memberColumns).
			AddRow(1, "Ada", "CTO", "Builds things", "", "https://linkedin.com/in/ada", "").
			AddRow(2, "Grace", "Engineer", "", "", "", "https://github.com/grace")
		mockPool.ExpectQuery(`SELECT id, name, role, COALESCE\(bio, ''\) AS bio, .* FROM team ORDER BY id ASC`).
			WillReturnRows(rows)

		members, err := repo.ListTeam(context.Background())

		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "Ada", members[0].Name)
		assert.Equal(t, "https://github.com/grace", members[1].GithubURL)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap query errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := directory.NewRepository(mockPool)
		mockPool.ExpectQuery("SELECT .* FROM team").WillReturnError(errors.New("connection reset"))

		_, err = repo.ListTeam(context.Background())

		assert.ErrorContains(t, err, "scanning team")
	})
}

func TestRepository_GetMember(t *testing.T) {
	t.Run("Should fetch one member by id", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := directory.NewRepository(mockPool)
		rows := mockPool.NewRows(memberColumns).AddRow(7, "Linus", "Advisor", "", "", "", "")
		mockPool.ExpectQuery(`SELECT .* FROM team WHERE id = \$1`).WithArgs(7).WillReturnRows(rows)

		m, err := repo.GetMember(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, "Advisor", m.Role)
	})

	t.Run("Should map no rows to ErrMemberNotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := directory.NewRepository(mockPool)
		mockPool.ExpectQuery(`SELECT .* FROM team WHERE id = \$1`).WithArgs(9).WillReturnRows(mockPool.NewRows(memberColumns))

		_, err = repo.GetMember(context.Background(), 9)

		assert.ErrorIs(t, err, directory.ErrMemberNotFound)
	})
}

func TestAPIReader(t *testing.T) {
	t.Run("Should map a 404 to ErrMemberNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()
		client, err := api.New(&config.APIConfig{BaseURL: srv.URL, TrailingSlash: true})
		require.NoError(t, err)

		_, err = directory.FromAPI(client).GetMember(context.Background(), 3)

		assert.ErrorIs(t, err, directory.ErrMemberNotFound)
	})
}
