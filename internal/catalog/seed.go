package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"aligner-lab-backend/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// File é o formato do catalog.yaml:
//
//	products:
//	  - type: alinhador
//	    name: Alinhador ortodôntico
//	    aligner: true
type File struct {
	Products []FileProduct `yaml:"products"`
}

type FileProduct struct {
	Type    string `yaml:"type"`
	Name    string `yaml:"name"`
	Aligner bool   `yaml:"aligner"`
}

func Parse(data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, fmt.Errorf("catalog: arquivo vazio")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("catalog: decode: %w", err)
	}
	seen := map[string]bool{}
	for i, p := range f.Products {
		t := normalize(p.Type)
		if t == "" {
			return File{}, fmt.Errorf("catalog: produto %d sem type", i+1)
		}
		if seen[t] {
			return File{}, fmt.Errorf("catalog: type duplicado %q", t)
		}
		seen[t] = true
		f.Products[i].Type = t
		if strings.TrimSpace(p.Name) == "" {
			f.Products[i].Name = t
		}
	}
	return f, nil
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Static monta um catálogo em memória a partir do arquivo
func (f File) Static() Static {
	s := Static{}
	for _, p := range f.Products {
		s[p.Type] = p.Aligner
	}
	return s
}

// Seed grava os produtos do arquivo (upsert por type)
func Seed(db *gorm.DB, f File) error {
	for _, p := range f.Products {
		row := models.Product{Name: p.Name, Type: p.Type, IsAligner: p.Aligner}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_aligner", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("catalog: seed %s: %w", p.Type, err)
		}
	}
	return nil
}
