package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriaulyamaeva/moneymine/internal/logger"
	"github.com/valeriaulyamaeva/moneymine/internal/memstore"
	"github.com/valeriaulyamaeva/moneymine/internal/services/investment"
)

func TestScheduleConsolidation(t *testing.T) {
	svc := investment.NewService(memstore.New(), nil, logger.NewSilent())

	t.Run("empty schedule disables the job", func(t *testing.T) {
		c, err := ScheduleConsolidation("", svc, logger.NewSilent())
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("invalid schedule is rejected", func(t *testing.T) {
		_, err := ScheduleConsolidation("every tuesday", svc, logger.NewSilent())
		assert.Error(t, err)
	})

	t.Run("valid schedule registers one entry", func(t *testing.T) {
		c, err := ScheduleConsolidation("@daily", svc, logger.NewSilent())
		require.NoError(t, err)
		require.NotNil(t, c)
		defer c.Stop()
		assert.Len(t, c.Entries(), 1)
	})
}
