package storage

import (
	"errors"
	"mime"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var log *logrus.Entry = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "storage",
	})
	return nil
}

var ErrObjectNotFound = errors.New("object not found")

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
