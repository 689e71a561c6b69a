package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/auth"
	"github.com/yourorg/credenciales/internal/credential"
	"github.com/yourorg/credenciales/internal/editor"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/render"
)

func seedAdminCmd() *cobra.Command {
	var (
		email    string
		nombre   string
		password string
		rol      string
	)
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Crea un usuario del personal (ADMIN o EDITOR)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			role := models.Role(strings.ToUpper(rol))
			if !role.IsStaff() {
				return fmt.Errorf("rol %q inválido: use ADMIN o EDITOR", rol)
			}
			e, ctx, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			svc := auth.NewService(e.users, auth.NewTokens(e.cfg.JWTSecret, e.cfg.JWTTTL), e.log)
			u, err := svc.CreateUser(ctx, models.RegisterRequest{Email: email, Nombre: nombre, Password: password}, role)
			if apperr.KindOf(err) == apperr.Conflict {
				fmt.Fprintf(cmd.OutOrStdout(), "Seed: el usuario %s ya existe\n", email)
				return nil
			}
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seed: creado %s (%s) id=%s\n", u.Email, u.Rol, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&nombre, "nombre", "Administrador", "nombre visible")
	cmd.Flags().StringVar(&password, "password", "", "contraseña (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&rol, "rol", string(models.RoleAdmin), "ADMIN o EDITOR")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// importFile es el formato YAML de carga masiva: una lista por tipo.
type importFile struct {
	Ministerial []credential.CreateInput `yaml:"ministerial"`
	Capellania  []credential.CreateInput `yaml:"capellania"`
}

func parseImport(r io.Reader) (importFile, error) {
	var f importFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return importFile{}, fmt.Errorf("yaml: %w", err)
	}
	return f, nil
}

// importSummary cuenta el resultado de una carga.
type importSummary struct {
	Created   int
	Conflicts []string
	Invalid   []string
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <archivo.yaml>",
		Short: "Carga credenciales desde YAML; los documentos repetidos se informan y se omiten",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fh.Close()
			f, err := parseImport(fh)
			if err != nil {
				return err
			}

			e, ctx, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var sum importSummary
			batches := []struct {
				kind  models.CredentialKind
				items []credential.CreateInput
			}{
				{models.KindMinisterial, f.Ministerial},
				{models.KindCapellania, f.Capellania},
			}
			for _, b := range batches {
				for i, in := range b.items {
					_, err := e.creds.Create(ctx, b.kind, in)
					if err == nil {
						sum.Created++
						continue
					}
					label := fmt.Sprintf("%s #%d (%s)", b.kind, i+1, in.Documento)
					switch apperr.KindOf(err) {
					case apperr.Internal:
						return fmt.Errorf("%s: %w", label, err)
					case apperr.Conflict:
						sum.Conflicts = append(sum.Conflicts, label)
					default:
						sum.Invalid = append(sum.Invalid, label+": "+describe(err).Error())
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Import: %d creadas, %d repetidas, %d inválidas\n", sum.Created, len(sum.Conflicts), len(sum.Invalid))
			for _, c := range sum.Conflicts {
				fmt.Fprintln(out, "  repetida:", c)
			}
			for _, c := range sum.Invalid {
				fmt.Fprintln(out, "  inválida:", c)
			}
			return nil
		},
	}
}

func printCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "print <ministerial|capellania> <id>",
		Short: "Genera la hoja imprimible de una credencial (.pdf o .html)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseKind(args[0])
			if err != nil {
				return err
			}
			e, ctx, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			c, err := e.creds.Get(ctx, kind, args[1])
			if err != nil {
				return describe(err)
			}
			if out == "" {
				out = "credencial-" + c.Documento + ".pdf"
			}
			return writeCard(cmd, e, c, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archivo de salida; la extensión elige el formato")
	return cmd
}

// writeCard escribe el documento imprimible en HTML o, vía Chrome, en PDF.
func writeCard(cmd *cobra.Command, e *env, c models.Credential, out string) error {
	layout := render.Layout{Registro: e.cfg.RegistroLine, AssetBase: e.cfg.BaseURL}
	doc, err := layout.PrintDocument(c)
	if err != nil {
		return err
	}
	data := doc
	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		printer := render.NewChromePrinter(e.cfg.ChromePath, e.cfg.PrintTimeout, e.log)
		data, err = printer.PDF(cmd.Context(), doc)
		if err != nil {
			return describe(err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Credencial %s %s escrita en %s\n", c.Kind, c.Documento, out)
	return nil
}

func emitirCmd() *cobra.Command {
	values := map[string]*string{}
	var out string
	cmd := &cobra.Command{
		Use:   "emitir <ministerial|capellania>",
		Short: "Da de alta una credencial con el formulario del editor y la imprime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseKind(args[0])
			if err != nil {
				return err
			}
			e, ctx, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			d := editor.New()
			if err := d.OpenCreate(kind, credential.CreateInput{}); err != nil {
				return err
			}
			for _, field := range models.CredentialFields {
				if v := values[field]; v != nil && *v != "" {
					if err := d.Set(field, *v); err != nil {
						return err
					}
				}
			}

			var printErr error
			d.OnCreated = func(c models.Credential) {
				fmt.Fprintf(cmd.OutOrStdout(), "Credencial creada: %s (%s %s)\n", c.ID, c.Apellido, c.Nombre)
				if out != "" {
					printErr = writeCard(cmd, e, c, out)
				}
			}
			if _, err := d.Submit(ctx, e.creds); err != nil {
				return describe(err)
			}
			return printErr
		},
	}
	for _, field := range models.CredentialFields {
		values[field] = cmd.Flags().String(field, "", "campo "+field)
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "imprime la credencial creada en este archivo (.pdf o .html)")
	return cmd
}

// describe agrega los errores por campo al mensaje legible.
func describe(err error) error {
	if err == nil {
		return nil
	}
	fields := apperr.FieldsOf(err)
	if len(fields) == 0 {
		return errors.New(apperr.MessageOf(err))
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+": "+fields[f])
	}
	return fmt.Errorf("%s (%s)", apperr.MessageOf(err), strings.Join(parts, "; "))
}
