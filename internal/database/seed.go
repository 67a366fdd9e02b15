package database

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/justsurfingit/job-portal/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed/master.yaml
var masterYAML []byte

type RecommendWeights struct {
	Feature    float64 `yaml:"feature"`
	Prefecture float64 `yaml:"prefecture"`
	Featured   float64 `yaml:"featured"`
	Fresh      float64 `yaml:"fresh"`
	FreshDays  float64 `yaml:"fresh_days"`
	Popularity float64 `yaml:"popularity"`
}

type MasterData struct {
	Recommend   RecommendWeights `yaml:"recommend"`
	Prefectures []struct {
		Code   string `yaml:"code"`
		Name   string `yaml:"name"`
		Region string `yaml:"region"`
	} `yaml:"prefectures"`
	Features []struct {
		Slug     string `yaml:"slug"`
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
	} `yaml:"features"`
}

// LoadMaster parses the embedded master data, or the file at path when set.
func LoadMaster(path string) (MasterData, error) {
	var md MasterData
	b := masterYAML
	if path != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return md, fmt.Errorf("read master data: %w", err)
		}
	}
	if err := yaml.Unmarshal(b, &md); err != nil {
		return md, fmt.Errorf("parse master data: %w", err)
	}
	if md.Recommend.FreshDays <= 0 {
		md.Recommend.FreshDays = 30
	}
	return md, nil
}

// Seed upserts prefectures and features. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	md, err := LoadMaster("")
	if err != nil {
		return err
	}

	prefs := make([]models.Prefecture, 0, len(md.Prefectures))
	for _, p := range md.Prefectures {
		prefs = append(prefs, models.Prefecture{Code: p.Code, Name: p.Name, Region: p.Region})
	}
	feats := make([]models.Feature, 0, len(md.Features))
	for _, f := range md.Features {
		feats = append(feats, models.Feature{Slug: f.Slug, Name: f.Name, Category: f.Category})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if len(prefs) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "region"}),
			}).Create(&prefs).Error
			if err != nil {
				return fmt.Errorf("seed prefectures: %w", err)
			}
		}
		if len(feats) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "category"}),
			}).Create(&feats).Error
			if err != nil {
				return fmt.Errorf("seed features: %w", err)
			}
		}
		return nil
	})
}
