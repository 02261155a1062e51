package database

import (
	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	logger := config.GetLogger()

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true, // chave duplicada → gorm.ErrDuplicatedKey
	})
	if err != nil {
		logger.Fatalf("Não foi possível conectar ao banco: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Case{},
		&models.Tray{},
		&models.DeliveryLot{},
		&models.Installation{},
		&models.PatientDeliveryLot{},
		&models.ActualChangeDate{},
		&models.WorkItem{},
		&models.BankEntry{},
		&models.AuditLog{},
	)
	if err != nil {
		logger.Fatalf("Erro no AutoMigrate: %v", err)
	}

	// no máximo uma linha disponivel por (caso, arcada, placa)
	if err := DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_bank_one_available
		ON bank_entries (case_id, arch, tray_number)
		WHERE status = 'disponivel'
	`).Error; err != nil {
		logger.Warnf("Índice idx_bank_one_available não criado: %v", err)
	}

	logger.Info("Conexão com o banco OK. Migração concluída.")
}
