package db

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"server-profit-app/config"
	"server-profit-app/internal/model"
)

var (
	MysqlCli *gorm.DB
)

func Init() {
	connMysql()
}

func connMysql() {
	var err error
	mysqlCfg := config.MySql
	MysqlCli, err = gorm.Open(mysql.Open(mysqlCfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Error("Connect mysql error: ", err, " Connect host: ", mysqlCfg.Host)
		panic(err)
	}

	sqlDB, err := MysqlCli.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxIdleConns(mysqlCfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(mysqlCfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(mysqlCfg.ConnMaxLifetime) * time.Second)
	log.Infof("conn mysql %s/%s success", mysqlCfg.Host, mysqlCfg.Database)

	if mysqlCfg.AutoMigrate {
		if err = Migrate(MysqlCli); err != nil {
			panic(err)
		}
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(gdb *gorm.DB) error {
	return errors.Wrap(gdb.AutoMigrate(model.All()...), "auto migrate")
}

func Close() {
	if MysqlCli == nil {
		return
	}
	sqlDB, err := MysqlCli.DB()
	if err != nil {
		log.Warnf("get sql db failed: %v", err)
		return
	}
	_ = sqlDB.Close()
}
