package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rentapp/pkg/domain"
)

func (a *App) listCmd() *cobra.Command {
	var (
		f      domain.PropertyFilter
		source string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			f.Source = domain.Source(source)
			props, err := svc.Properties().Filter(cmd.Context(), f)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), props)
			}
			printProperties(cmd.OutOrStdout(), props)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Region, "region", "", "region name or slug")
	fl.StringVar(&f.Ward, "ward", "", "ward name or slug")
	fl.StringVar(&f.PropertyType, "type", "", "property type slug")
	fl.StringVar(&f.Status, "status", "", "available or occupied")
	fl.StringVar(&f.Plan, "plan", "", "payment plan (3+, 6+, 12+)")
	fl.Int64Var(&f.MinPrice, "min-price", 0, "minimum monthly price")
	fl.Int64Var(&f.MaxPrice, "max-price", 0, "maximum monthly price")
	fl.IntVar(&f.MinBedrooms, "min-bedrooms", 0, "minimum bedrooms")
	fl.StringVar(&f.OwnerID, "owner", "", "owner user id")
	fl.StringVar(&source, "source", "", "static or submitted")
	fl.StringVarP(&f.Query, "query", "q", "", "free text search")
	fl.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *App) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			props, err := svc.Properties().GetAll(cmd.Context())
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			for _, p := range props {
				if p.ID == args[0] {
					return writeJSON(cmd.OutOrStdout(), p)
				}
			}
			return fmt.Errorf("property %s: %w", args[0], domain.ErrNotFound)
		},
	}
}

func (a *App) mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List properties submitted by --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			subs, err := svc.Properties().ListByOwner(cmd.Context(), a.userID)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No submitted properties.")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s  %-28s  %-12s  %-24s\n", "ID", "Type", "Status", "Updated")
			for _, s := range subs {
				fmt.Fprintf(out, "%-16s  %-28s  %-12s  %-24s\n", s.ID, s.PropertyType, s.Status, s.EffectiveTime().Format(time.RFC3339))
			}
			return nil
		},
	}
}

// propertyFlags binds the editable submission fields.
type propertyFlags struct {
	p      domain.SubmittedProperty
	images []string
}

func (pf *propertyFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&pf.p.PropertyType, "type", "", "property type slug, e.g. 2-bdrm-apartment")
	fl.StringVar(&pf.p.Status, "status", domain.StatusAvailable, "available or occupied")
	fl.StringVar(&pf.p.Region, "region", "", "region")
	fl.StringVar(&pf.p.Ward, "ward", "", "ward")
	fl.StringVar(&pf.p.Price, "price", "", "monthly price, e.g. 500,000")
	fl.StringVar(&pf.p.PaymentPlan, "plan", domain.Plan3, "payment plan (3+, 6+, 12+)")
	fl.StringVar(&pf.p.Bedrooms, "bedrooms", "", "bedrooms")
	fl.StringVar(&pf.p.Bathrooms, "bathrooms", "", "bathrooms")
	fl.StringVar(&pf.p.SquareFootage, "area", "", "floor area")
	fl.StringVar(&pf.p.Title, "title", "", "title")
	fl.StringVar(&pf.p.Description, "description", "", "description")
	fl.StringArrayVar(&pf.p.Amenities, "amenity", nil, "amenity (repeatable)")
	fl.StringArrayVar(&pf.images, "image", nil, "image URL or local file (repeatable)")
	fl.StringVar(&pf.p.ContactName, "contact-name", "", "contact name")
	fl.StringVar(&pf.p.ContactPhone, "contact-phone", "", "contact phone")
	fl.StringVar(&pf.p.ContactEmail, "contact-email", "", "contact email")
	fl.StringVar(&pf.p.ContactWhatsApp, "contact-whatsapp", "", "contact WhatsApp number")
	fl.StringVar(&pf.p.UploaderType, "uploader", "", "Broker or Owner")
	fl.StringVar(&pf.p.OwnerEmail, "owner-email", "", "owner email")
	fl.StringVar(&pf.p.OwnerName, "owner-name", "", "owner name")
}

// apply copies the flags the user set onto dst.
func (pf *propertyFlags) apply(cmd *cobra.Command, dst *domain.SubmittedProperty) error {
	set := func(name string, field *string, value string) {
		if cmd.Flags().Changed(name) {
			*field = value
		}
	}
	set("type", &dst.PropertyType, pf.p.PropertyType)
	set("status", &dst.Status, pf.p.Status)
	set("region", &dst.Region, pf.p.Region)
	set("ward", &dst.Ward, pf.p.Ward)
	set("price", &dst.Price, pf.p.Price)
	set("plan", &dst.PaymentPlan, pf.p.PaymentPlan)
	set("bedrooms", &dst.Bedrooms, pf.p.Bedrooms)
	set("bathrooms", &dst.Bathrooms, pf.p.Bathrooms)
	set("area", &dst.SquareFootage, pf.p.SquareFootage)
	set("title", &dst.Title, pf.p.Title)
	set("description", &dst.Description, pf.p.Description)
	set("contact-name", &dst.ContactName, pf.p.ContactName)
	set("contact-phone", &dst.ContactPhone, pf.p.ContactPhone)
	set("contact-email", &dst.ContactEmail, pf.p.ContactEmail)
	set("contact-whatsapp", &dst.ContactWhatsApp, pf.p.ContactWhatsApp)
	set("uploader", &dst.UploaderType, pf.p.UploaderType)
	set("owner-email", &dst.OwnerEmail, pf.p.OwnerEmail)
	set("owner-name", &dst.OwnerName, pf.p.OwnerName)
	if cmd.Flags().Changed("amenity") {
		dst.Amenities = append([]string(nil), pf.p.Amenities...)
	}
	if cmd.Flags().Changed("image") {
		images, err := loadImages(pf.images)
		if err != nil {
			return err
		}
		dst.Images = images
	}
	return nil
}

// loadImages inlines local files as data URLs and passes other values on.
func loadImages(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.Contains(v, "://") || strings.HasPrefix(v, "data:") {
			out = append(out, v)
			continue
		}
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", v, err)
		}
		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(v)))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		out = append(out, "data:"+mediaType+";base64,"+base64.StdEncoding.EncodeToString(data))
	}
	return out, nil
}

func (a *App) submitCmd() *cobra.Command {
	var pf propertyFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new property owned by --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			p := domain.SubmittedProperty{Status: pf.p.Status, PaymentPlan: pf.p.PaymentPlan, OwnerID: a.userID}
			if err := pf.apply(cmd, &p); err != nil {
				return err
			}
			created, err := svc.Properties().Create(cmd.Context(), p)
			if err != nil {
				return a.writeFailure("submit", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted property %s\n", created.ID)
			return nil
		},
	}
	pf.bind(cmd)
	return cmd
}

func (a *App) updateCmd() *cobra.Command {
	var pf propertyFlags
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a property owned by --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			ok, err := svc.Properties().Update(cmd.Context(), args[0], func(p *domain.SubmittedProperty) error {
				return pf.apply(cmd, p)
			}, a.userID)
			if err != nil {
				return a.writeFailure("update", err)
			}
			if !ok {
				return fmt.Errorf("property %s: %w or not owned by you", args[0], domain.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated property %s\n", args[0])
			return nil
		},
	}
	pf.bind(cmd)
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a property owned by --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			ok, err := svc.Properties().Delete(cmd.Context(), args[0], a.userID)
			if err != nil {
				return a.writeFailure("delete", err)
			}
			if !ok {
				return fmt.Errorf("property %s: %w or not owned by you", args[0], domain.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted property %s\n", args[0])
			return nil
		},
	}
}

func printProperties(out io.Writer, props []domain.DisplayProperty) {
	if len(props) == 0 {
		fmt.Fprintln(out, "No properties found.")
		return
	}
	fmt.Fprintf(out, "%-16s  %-40s  %-28s  %12s  %-5s  %-9s\n", "ID", "Title", "Location", "Price", "Plan", "Source")
	for _, p := range props {
		fmt.Fprintf(out, "%-16s  %-40s  %-28s  %12s  %-5s  %-9s\n",
			p.ID, truncate(p.Title, 40), truncate(p.Location, 28), strconv.FormatInt(p.Price, 10), p.Plan, p.Source)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
