package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/service"
)

// commandContext 按需加载配置并连接数据库，所有子命令共享
type commandContext struct {
	configFlag *string

	once     sync.Once
	cfg      *config.Config
	repos    *repository.Repositories
	services *service.Services
	err      error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) loadConfig() *config.Config {
	if c.cfg != nil {
		return c.cfg
	}
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			os.Setenv("DREADSCALE_CONFIG", path)
		}
	}
	c.cfg = config.Load()
	return c.cfg
}

func (c *commandContext) ensure() (*service.Services, error) {
	c.once.Do(func() {
		cfg := c.loadConfig()
		db, err := repository.InitDB(cfg.DatabaseURL)
		if err != nil {
			c.err = fmt.Errorf("连接数据库失败: %w", err)
			return
		}
		c.repos = repository.NewRepositories(db)
		c.services = service.NewServices(cfg, c.repos, nil)
	})
	return c.services, c.err
}

// close 写入待刷新的电影元数据并关闭数据库
func (c *commandContext) close() {
	if c.services != nil {
		c.services.Store.Flush()
	}
	if c.repos != nil {
		if sqlDB, err := c.repos.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
