// Package packlate localizes a pack of English strings into five fixed target
// languages (ruRU, deDE, frFR, zhCN, esES) using a conversational AI backend.
//
// Each entry is translated in its own backend session. Truncated replies are
// resumed with "continue" messages, a malformed reply gets one reformat
// request, and the first rate-limit signal trips a gate that skips every
// remaining entry in the run. Populated target fields are never overwritten.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/packlate"
//	    "github.com/ZaguanLabs/packlate/cache"
//	    "github.com/ZaguanLabs/packlate/packfile"
//	    "github.com/ZaguanLabs/packlate/provider"
//	)
//
//	func main() {
//	    backend := provider.NewOpenAIBackend(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    pack, err := packfile.Load("strings.json")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    t := packlate.NewTranslator(backend,
//	        packlate.WithCache(cache.NewInMemoryCache(3600)),
//	    )
//
//	    out, stats := t.TranslatePack(context.Background(), pack)
//	    fmt.Println(stats.Translated)
//	    _ = packfile.Save("stringsTranslated.json", out, 2)
//	}
package packlate
