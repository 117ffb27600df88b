package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

func main() {
	_ = godotenv.Load("dev.env")

	app := cli.NewApp()
	app.Name = "academypay"
	app.Usage = "Cricket academy payments client"
	app.Version = "1.00"
	app.Compiled = time.Now()
	app.Commands = []cli.Command{
		{
			Name:  "pay",
			Usage: "Pays a booking or a coaching enrolment",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "amount", Usage: "amount in major units, e.g. 500.00"},
				cli.StringFlag{Name: "currency", Usage: "ISO-4217 code, defaults to PAYMENT_DEFAULT_CURRENCY"},
				cli.StringFlag{Name: "method", Usage: "CASH, RAZORPAY or PAYPAL"},
				cli.StringFlag{Name: "booking", Usage: "booking id"},
				cli.StringFlag{Name: "coaching", Usage: "coaching id"},
				cli.StringFlag{Name: "email", Usage: "payer e-mail"},
				cli.BoolFlag{Name: "no-receipt", Usage: "do not write a receipt"},
			},
			Action: Pay,
		},
		{
			Name:  "methods",
			Usage: "Lists the payment methods a user may use",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "user", Usage: "user id, defaults to the signed-in user"},
				cli.BoolFlag{Name: "remote", Usage: "ask the backend instead of resolving the config locally"},
			},
			Action: Methods,
		},
		{
			Name:  "config",
			Usage: "Shows or changes the payment configuration",
			Subcommands: []cli.Command{
				{
					Name:   "show",
					Usage:  "Prints the payment configuration",
					Action: ShowConfig,
				},
				{
					Name:  "set-enabled",
					Usage: "Enables or disables a method site-wide",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "method"},
						cli.BoolTFlag{Name: "enabled"},
					},
					Action: SetMethodEnabled,
				},
			},
		},
		{
			Name:  "journal",
			Usage: "Captured payments the backend did not record",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "Lists unrecorded captures",
					Action: ListJournal,
				},
				{
					Name:  "retry",
					Usage: "Records a journaled capture again",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "id", Usage: "journal entry id"},
					},
					Action: RetryJournal,
				},
			},
		},
		{
			Name:  "login",
			Usage: "Stores the tokens issued by the academy login",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "access"},
				cli.StringFlag{Name: "refresh"},
			},
			Action: Login,
		},
		{
			Name:   "logout",
			Usage:  "Forgets the stored tokens",
			Action: Logout,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
