package arena

import (
	"fmt"
	"math/rand/v2"
)

var botNamePool = []string{
	"PEPE", "DOGE", "WOJAK", "FROG", "CAT", "LAMBO", "MOON", "NGMI", "WAGMI", "COOK",
	"SHIB", "FLOKI", "PONK", "GIGA", "MEME", "TURBO", "RUG", "APU", "KEK", "PEPE2",
}

// RandomBotName returns a meme word followed by a three digit number.
func RandomBotName() string {
	return fmt.Sprintf("%s%d", botNamePool[rand.IntN(len(botNamePool))], 100+rand.IntN(900))
}
