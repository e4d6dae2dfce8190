package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/query/memory"
)

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "crmdev version dev\n", out.String())
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CRM_ADDR", ":9000")
	t.Setenv("CRM_LOG_LEVEL", "warn")

	cfg, err := loadConfig(&flags{addr: ":7000", memory: true})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Memory)

	_, err = loadConfig(&flags{db: "file:other.db", logLevel: "debug"})
	require.NoError(t, err)
}

func TestSeedRejectsMemory(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"seed", "--memory"})
	assert.Error(t, root.Execute())
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, seed(ctx, store, zaptest.NewLogger(t)))

	count := func(collection string, filters ...query.Criterion) int {
		res := store.Query(ctx, collection, nil, filters)
		require.NoError(t, res.Err)
		return len(res.Records)
	}
	assert.Equal(t, len(demoUsers), count("users"))
	assert.Equal(t, len(demoCompanies), count("companies"))
	assert.Equal(t, 9, count("contacts"))
	assert.Equal(t, 4, count("deals"))
	assert.Equal(t, 3, count("companynotes"))

	acme := store.Query(ctx, "companies", nil, []query.Criterion{query.Eq("name", "Acme Corporation")}).First()
	require.NotNil(t, acme)
	assert.Equal(t, 48500000.0, acme.Value("totalRevenue"))
	assert.Equal(t, 3, count("contacts", query.Eq("companyId", acme.ID())))

	deals := store.Query(ctx, "deals", []string{"title", "stage"}, []query.Criterion{query.Eq("companyId", acme.ID())})
	require.NoError(t, deals.Err)
	require.Len(t, deals.Records, 2)
	assert.Equal(t, "Anvil supply contract", deals.Records[0].String("title"), "deals keep their listed order")
	assert.Equal(t, "WON", deals.Records[1].String("stage"))

	stark := store.Query(ctx, "companies", nil, []query.Criterion{query.Eq("name", "Stark Logistics")}).First()
	require.NotNil(t, stark)
	assert.Nil(t, stark.Value("country"), "unset demo fields stay empty")
}

func TestSeedStopsOnWriteFailure(t *testing.T) {
	store := memory.New()
	store.FailNext("insert", "companies", errors.New("disk full"))

	err := seed(context.Background(), store, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
