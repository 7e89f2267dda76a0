package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"sigs.k8s.io/yaml"
)

// SeedFile 初始数据文件格式
//
//	accounts:
//	  - name: prod-hub
//	    registry_type: docker_hub
//	    url: https://index.docker.io
//	summaries:
//	  - type: docker_hub
//	    registries: 2
//	    images: 1500
//	    tags: 3400
type SeedFile struct {
	Accounts  []models.RegistryAccount `json:"accounts"`
	Summaries []models.RegistrySummary `json:"summaries"`
}

// ParseSeed 解析 YAML 初始数据
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("解析初始数据失败: %w", err)
	}
	return &seed, nil
}

// Seed 导入初始数据，已存在的仓库跳过，汇总快照覆盖写入
func Seed(ctx context.Context, path string, accounts *services.RegistryAccountService, summaries *services.RegistrySummaryService) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取初始数据文件失败: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return err
	}

	created := 0
	for i := range seed.Accounts {
		account := seed.Accounts[i]
		if err := accounts.CreateAccount(ctx, &account); err != nil {
			if errors.Is(err, services.ErrAccountExists) {
				continue
			}
			return err
		}
		created++
	}

	if err := summaries.UpsertSnapshots(ctx, seed.Summaries); err != nil {
		return err
	}

	logger.Info("初始数据导入完成", "file", path, "accounts", created, "summaries", len(seed.Summaries))
	return nil
}
