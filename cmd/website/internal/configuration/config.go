package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AwsEndpointUrl         string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion              string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsAccessKeyId         string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey     string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket              string `flag:"awsbucket" env:"AWS_BUCKET" default:"galleria.local" description:"S3 bucket"`
	CookieSecret           string `flag:"cookiesecret" env:"COOKIE_SECRET" default:"password" description:"Secret for encoding cookies"`
	DownloadBaseURL        string `flag:"dlb" env:"DOWNLOAD_BASE_URL" default:"http://localhost:8080" description:"Base URL for downloading images"`
	DownloadExpirationDays int    `flag:"dle" env:"DOWNLOAD_EXPIRATION_DAYS" default:"30" description:"Number of days before zip files expire in the download directory"`
	DSN                    string `flag:"dsn" env:"DSN" default:"file:./data/galleria.db" description:"Data source name"`
	EmailApiKey            string `flag:"emailapikey" env:"EMAIL_API_KEY" default:"" description:"API key for sending emails"`
	Host                   string `flag:"host" env:"HOST" default:"localhost:8080" description:"The address and port to bind the HTTP server to"`
	LogLevel               string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxThumbnailWorkers    int    `flag:"mtw" env:"MAX_THUMBNAIL_WORKERS" default:"20" description:"Maximum number of concurrent thumbnail workers"`
	PhotoFolder            string `flag:"pf" env:"PHOTO_FOLDER" default:"photos" description:"S3 folder for user photos"`
	SessionTTLMinutes      int    `flag:"sessionttl" env:"SESSION_TTL_MINUTES" default:"30" description:"Minutes an idle gallery editing session is kept alive"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
