package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pkg/config"
)

// 默认配置必须能通过加载器的结构校验，否则服务无法启动。
func TestDefaultConfigLoads(t *testing.T) {
	var cfg config.Config
	require.NoError(t, config.Load("../../configs/strategy/config.toml", &cfg))

	assert.Equal(t, "rationalmarkets-strategy", cfg.Server.Name)
	assert.Equal(t, "mysql", cfg.Data.Database.Driver)
	assert.NotEmpty(t, cfg.Data.Database.DSN)
	assert.NotEmpty(t, cfg.Data.Redis.Addrs)
}
