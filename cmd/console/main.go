// Command console is the clerk-facing billing console: a terminal front-end
// around the view-model in internal/console, talking to the billing backend
// configured via SHOP_API_URL.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"clothbill/internal/api"
	"clothbill/internal/config"
	"clothbill/internal/console"
)

// terminalScreen prints each region update as it happens, headed by the
// region name.
type terminalScreen struct{}

func (terminalScreen) SetRegion(name string, markup string) {
	if markup == "" {
		fmt.Printf("== %s ==\n(empty)\n", name)
		return
	}
	fmt.Printf("== %s ==\n%s\n", name, markup)
}

// terminalPrompter drives alerts and confirmations over stdin/stdout.
type terminalPrompter struct {
	in *bufio.Reader
}

func (p *terminalPrompter) Alert(msg string) {
	fmt.Printf("[!] %s\n", msg)
}

func (p *terminalPrompter) Confirm(msg string) bool {
	fmt.Printf("%s [y/N]: ", msg)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	in := bufio.NewReader(os.Stdin)
	prompter := &terminalPrompter{in: in}
	con := console.New(api.New(cfg.APIBaseURL), terminalScreen{}, prompter)

	if err := con.Init(ctx); err != nil {
		log.Fatalf("startup failed against %s: %v", cfg.APIBaseURL, err)
	}

	fmt.Println(`Commands:
  stock                reload and show stock
  add <stock-id>       add a stock item to the bill
  qty <line> <value>   change a bill line's quantity
  rm <line>            remove a bill line
  name <text>          set customer name
  phone <digits>       set customer phone (looks up their last bill)
  worker <n>           set worker number (1-132)
  bill                 generate the bill
  addstock             add new stock (asks for the item details)
  incentives           show worker incentives
  reset                reset all worker incentives
  quit`)

	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		var opErr error
		switch cmd {
		case "stock":
			opErr = con.LoadStock(ctx)
		case "add":
			if len(args) != 1 {
				fmt.Println("usage: add <stock-id>")
				continue
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fmt.Println("usage: add <stock-id>")
				continue
			}
			opErr = con.AddToBill(id)
		case "qty":
			if len(args) != 2 {
				fmt.Println("usage: qty <line> <value>")
				continue
			}
			index, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Println("usage: qty <line> <value>")
				continue
			}
			opErr = con.UpdateLineQuantity(index, args[1])
		case "rm":
			if len(args) != 1 {
				fmt.Println("usage: rm <line>")
				continue
			}
			index, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Println("usage: rm <line>")
				continue
			}
			opErr = con.RemoveLine(index)
		case "name":
			con.SetCustomerName(strings.Join(args, " "))
		case "phone":
			phone := strings.Join(args, "")
			opErr = con.LookupLastBill(ctx, phone)
		case "worker":
			con.SetWorkerNumber(strings.Join(args, ""))
		case "bill":
			opErr = con.SubmitBill(ctx)
		case "addstock":
			opErr = con.AddStock(ctx, readStockForm(in))
		case "incentives":
			opErr = con.LoadIncentives(ctx)
		case "reset":
			opErr = con.ResetIncentives(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}

		if opErr != nil {
			fmt.Printf("error: %v\n", opErr)
		}
	}
}

// readStockForm collects the five stock fields sequentially. A quantity or
// price that fails to parse is taken as zero; the zero quantity then aborts
// the add inside the view-model.
func readStockForm(in *bufio.Reader) console.StockForm {
	item := promptField(in, "Item Name (ex: Shirt)")
	size := promptField(in, "Size (S/M/L/XL)")
	color := promptField(in, "Color")
	qty, _ := strconv.Atoi(promptField(in, "Quantity"))
	price, _ := strconv.ParseFloat(promptField(in, "Price per piece"), 64)

	return console.StockForm{
		Item:  item,
		Size:  size,
		Color: color,
		Qty:   qty,
		Price: price,
	}
}

func promptField(in *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
