package main

type Settings struct {
	Port           int      `env:"PORT,default=8000"`
	BasePath       string   `env:"BASE_PATH,default=/radar"`
	JWTSecret      string   `env:"JWT_SECRET,required=true"`
	APIKeys        []string `env:"API_KEYS"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`
	LogEncoding    string   `env:"LOG_ENCODING,default=console"`
}
