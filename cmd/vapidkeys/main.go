// Command vapidkeys prints a new VAPID key pair in .env format.
package main

import (
	"fmt"
	"os"

	"lostfound/internal/app/push"
)

func main() {
	privateKey, publicKey, err := push.GenerateKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate VAPID keys: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("VAPID_PUBLIC_KEY=%s\n", publicKey)
	fmt.Printf("VAPID_PRIVATE_KEY=%s\n", privateKey)
}
