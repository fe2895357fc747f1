package logs

import (
	"fmt"
	"log"
)

func Report(code string) string {
	fmt.Println("resolved", code) // want "fmt.Println: используйте zap.Logger"
	log.Printf("code %s", code)   // want "log.Printf: используйте zap.Logger"
	return fmt.Sprintf("/%s", code)
}
