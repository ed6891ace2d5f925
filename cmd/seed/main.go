// seed 从 JSON 文件批量导入 Master 及其 Ability。
// 所有写入都经过完整性执行器，因此重复名称与悬空外键会被拒绝。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SlpAus/aureates-pokedex-backend/internal/integrity"
	"github.com/SlpAus/aureates-pokedex-backend/internal/media"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/database"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/startup"
	"github.com/redis/go-redis/v9"
)

// SeedAbility 是种子文件中的一条能力
type SeedAbility struct {
	Ability string `json:"ability"`
	Type    string `json:"type"`
	Damage  int    `json:"damage"`
	Status  string `json:"status"`
}

// SeedMaster 是种子文件中的一个 Master；Image 为相对种子文件的图片路径
type SeedMaster struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Image     string        `json:"image"`
	ImageType string        `json:"imageType"`
	Abilities []SeedAbility `json:"abilities"`
}

func main() {
	file := flag.String("file", "seed.json", "种子数据文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	db := database.InitDB(cfg.Database, cfg.Server.Mode)
	defer database.CloseDB()

	var rdb redis.Cmdable
	if client := database.InitRedis(context.Background(), cfg.Redis); client != nil {
		defer client.Close()
		rdb = client
	}

	enforcer, err := startup.InitializeApplication(cfg, db, rdb)
	if err != nil {
		panic(fmt.Sprintf("应用初始化失败: %v", err))
	}

	seeds, err := loadSeeds(*file)
	if err != nil {
		fmt.Printf("读取种子文件失败: %v\n", err)
		os.Exit(1)
	}

	created, skipped, err := run(context.Background(), enforcer, seeds, filepath.Dir(*file), cfg.Server.MaxUploadBytes)
	if err != nil {
		fmt.Printf("导入中止: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("导入完成：新增 %d 个 Master，跳过 %d 个已存在的 Master。\n", created, skipped)
}

func loadSeeds(path string) ([]SeedMaster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seeds []SeedMaster
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("无法解析 %s: %w", path, err)
	}
	return seeds, nil
}

// run 逐个导入；已存在的名称跳过，其余错误立即返回
func run(ctx context.Context, enf *integrity.Enforcer, seeds []SeedMaster, baseDir string, maxBytes int64) (created, skipped int, err error) {
	for _, s := range seeds {
		in := integrity.CreateMasterInput{Name: s.Name, Status: s.Status}
		if s.Image != "" {
			data, err := os.ReadFile(filepath.Join(baseDir, s.Image))
			if err != nil {
				return created, skipped, fmt.Errorf("读取 %s 的图片失败: %w", s.Name, err)
			}
			img, err := media.Normalize(data, s.ImageType, maxBytes)
			if err != nil {
				return created, skipped, fmt.Errorf("%s 的图片无效: %w", s.Name, err)
			}
			in.Image = &img
		}

		view, err := enf.CreateMaster(ctx, in)
		if apperr.IsConflict(err) {
			fmt.Printf("Master %q 已存在，跳过\n", s.Name)
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, fmt.Errorf("创建 Master %q 失败: %w", s.Name, err)
		}

		for _, a := range s.Abilities {
			if _, err := enf.CreateAbility(ctx, integrity.CreateAbilityInput{
				MasterID: view.ID,
				Ability:  a.Ability,
				Type:     a.Type,
				Damage:   a.Damage,
				Status:   a.Status,
			}); err != nil {
				return created, skipped, fmt.Errorf("为 %q 创建能力 %q 失败: %w", s.Name, a.Ability, err)
			}
		}
		fmt.Printf("已导入 Master %d: %s (%d 个能力)\n", view.ID, view.Name, len(s.Abilities))
		created++
	}
	return created, skipped, nil
}
