package videos

import "github.com/sirupsen/logrus"

var log *logrus.Entry = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "videos",
	})
	return nil
}
