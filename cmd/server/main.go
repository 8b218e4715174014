package main

import (
  "fmt"
  "os"

  "github.com/joho/godotenv"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/app"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/utils"
)

func main() {
  if err := godotenv.Load(); err != nil {
    fmt.Println("No .env file found, relying on environment")
  }

  application, err := app.New()
  if err != nil {
    fmt.Printf("Failed to init app: %v\n", err)
    os.Exit(1)
  }
  defer application.Close()

  port := utils.GetEnv("PORT", "8080", application.Log)
  application.Log.Info("Server listening", "port", port)
  if err := application.Run(":" + port); err != nil {
    application.Log.Error("Server failed", "error", err)
  }
}
