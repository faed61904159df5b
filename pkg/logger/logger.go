package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New создает логгер приложения с JSON-форматом вывода.
// Некорректный уровень логирования не считается ошибкой запуска.
func New(logLevel string) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})

	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию
	}
	log.SetLevel(level)
	return log
}
