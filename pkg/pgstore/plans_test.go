package pgstore_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pgstore"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

var planColumns = []string{"slug", "name", "description", "public", "rank", "trial_days", "price_cents", "quotas"}

func TestGetPlan(t *testing.T) {
	t.Parallel()

	t.Run("decodes quotas", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.GetPlanSQL).
			WithArgs("starter").
			WillReturnRows(pgxmock.NewRows(planColumns).
				AddRow("starter", "Starter", "", true, 1, 0, int64(900), []byte(`{"conversion":100,"merge":10}`)))

		p, err := store.GetPlan(context.Background(), "starter")
		require.NoError(t, err)
		assert.Equal(t, int64(100), p.Limit(quota.CategoryConversion))
		assert.Equal(t, int64(10), p.Limit(quota.CategoryMerge))
		assert.Equal(t, quota.Disabled, p.Limit(quota.CategoryAI))
		assert.False(t, p.Free())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.GetPlanSQL).WithArgs("gold").WillReturnError(pgx.ErrNoRows)

		_, err := store.GetPlan(context.Background(), "gold")
		assert.ErrorIs(t, err, entitlement.ErrPlanNotFound)
	})
}

func TestPublicPlans(t *testing.T) {
	t.Parallel()
	mock, store := newMock(t)
	mock.ExpectQuery(pgstore.PublicPlansSQL).
		WillReturnRows(pgxmock.NewRows(planColumns).
			AddRow("trial", "Trial", "", true, 0, 14, int64(0), []byte(`{"conversion":10}`)).
			AddRow("business", "Business", "", true, 3, 0, int64(9900), []byte(`{"conversion":10000,"ai":-1}`)))

	plans, err := store.PublicPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "trial", plans[0].Slug)
	assert.Equal(t, quota.Unlimited, plans[1].Limit(quota.CategoryAI))
}

func TestUpsertPlans_SeedsDefaultCatalog(t *testing.T) {
	t.Parallel()
	catalog, err := entitlement.DefaultCatalog()
	require.NoError(t, err)
	plans := catalog.Plans()

	mock, store := newMock(t)
	mock.ExpectBegin()
	for range plans {
		mock.ExpectExec(pgstore.UpsertPlanSQL).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.UpsertPlans(context.Background(), plans...))
}

func TestUpsertPlans_RejectsInvalidPlan(t *testing.T) {
	t.Parallel()
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.UpsertPlans(context.Background(), entitlement.Plan{Slug: "bad", Quotas: map[quota.Category]int64{"storage": 1}})
	assert.ErrorIs(t, err, entitlement.ErrInvalidPlan)
}
