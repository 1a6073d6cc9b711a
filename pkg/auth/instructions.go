package auth

import (
	"fmt"
	"strings"
)

// ShowAPIKeyGuide displays step-by-step instructions for obtaining an API key
func ShowAPIKeyGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🔑 TWITTERAPI.IO API KEY SETUP")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs a twitterapi.io API key to search tweets.")
	fmt.Println()

	fmt.Println("STEP 1: Create an account")
	fmt.Println("   - Go to https://twitterapi.io")
	fmt.Println("   - Sign up (the free tier is enough to get started)")
	fmt.Println()

	fmt.Println("STEP 2: Copy your API key")
	fmt.Println("   - Open the dashboard and copy the key shown under 'API Key'")
	fmt.Println()

	fmt.Println("STEP 3: Store it")
	fmt.Println("   - Run: tweetharvest auth login")
	fmt.Println("   - Or export TWEETHARVEST_API_KEY in your shell")
	fmt.Println()

	fmt.Println("Note: the free tier is throttled aggressively. If you upgrade,")
	fmt.Println("set tier to 'paid' so the harvester backs off less between retries.")
	fmt.Println(strings.Repeat("=", 80))
}
