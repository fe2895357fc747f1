package main

import (
	"log"
	"os"
)

type logger struct{}

// Fatal как у zap.Logger: метод, а не функция пакета log.
func (logger) Fatal(msg string) {}

func helper() {
	os.Exit(2)
}

func main() {
	defer helper()
	os.Exit(1)            // want "вызов os.Exit в функции main запрещён"
	log.Fatal("stop")     // want "вызов log.Fatal в функции main запрещён"
	log.Fatalf("%d", 1)   // want "вызов log.Fatalf в функции main запрещён"
	func() { os.Exit(3) }()

	var lg logger
	lg.Fatal("structured")
}
