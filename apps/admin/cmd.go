package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/darasa/core/tenant"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	tntSvc *tenant.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addtenant -name NAME -slug SLUG [-email EMAIL]  - register a new school")
	fmt.Println("  renametenant -slug SLUG -newslug SLUG           - change a school's slug")
	fmt.Println("  deactivatetenant -slug SLUG                     - deactivate a school")
	fmt.Println("  listtenants                                     - list all schools")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addCmd := flag.NewFlagSet("addtenant", flag.ExitOnError)
	addName := addCmd.String("name", "", "The school's display name.")
	addSlug := addCmd.String("slug", "", "The school's subdomain slug.")
	addEmail := addCmd.String("email", "", "The school's contact email.")

	renameCmd := flag.NewFlagSet("renametenant", flag.ExitOnError)
	renameSlug := renameCmd.String("slug", "", "The school's current slug.")
	renameNewSlug := renameCmd.String("newslug", "", "The school's new slug.")

	deactivateCmd := flag.NewFlagSet("deactivatetenant", flag.ExitOnError)
	deactivateSlug := deactivateCmd.String("slug", "", "The school's slug.")

	switch args[1] {
	case "addtenant":
		if err := addCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addName == "" || *addSlug == "" {
			addCmd.Usage()
			return errHelp
		}
		return cli.addTenant(*addName, *addSlug, *addEmail)
	case "renametenant":
		if err := renameCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *renameSlug == "" || *renameNewSlug == "" {
			renameCmd.Usage()
			return errHelp
		}
		return cli.renameTenant(*renameSlug, *renameNewSlug)
	case "deactivatetenant":
		if err := deactivateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deactivateSlug == "" {
			deactivateCmd.Usage()
			return errHelp
		}
		return cli.deactivateTenant(*deactivateSlug)
	case "listtenants":
		return cli.listTenants()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addTenant(name, slug, email string) error {
	tnt, err := cli.tntSvc.Create(context.Background(), tenant.NewTenant{
		Name:         name,
		Slug:         slug,
		ContactEmail: email,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s)\n", tnt.Slug, tnt.ID)
	return nil
}

func (cli *commandLine) renameTenant(slug, newSlug string) error {
	ctx := context.Background()
	tnt, err := cli.tntSvc.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	updated, err := cli.tntSvc.Update(ctx, tnt.ID, tenant.UpdateTenant{Slug: newSlug})
	if err != nil {
		return err
	}
	fmt.Printf("renamed %s -> %s\n", slug, updated.Slug)
	return nil
}

func (cli *commandLine) deactivateTenant(slug string) error {
	ctx := context.Background()
	tnt, err := cli.tntSvc.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	isActive := false
	if _, err = cli.tntSvc.Update(ctx, tnt.ID, tenant.UpdateTenant{IsActive: &isActive}); err != nil {
		return err
	}
	fmt.Printf("deactivated %s\n", slug)
	return nil
}

func (cli *commandLine) listTenants() error {
	tenants, err := cli.tntSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, tnt := range tenants {
		status := "active"
		if !tnt.IsActive {
			status = "inactive"
		}
		fmt.Printf("%-20s %-36s %s\n", tnt.Slug, tnt.ID, status)
	}
	return nil
}
