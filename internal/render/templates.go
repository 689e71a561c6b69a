package render

import "html/template"

// Las dos caras usan estilos en línea para que el documento impreso no
// dependa de hojas externas y coincida con la vista en pantalla.
const panelTemplates = `
{{define "frente"}}<div class="credencial frente" style="width:340px;height:214px;box-sizing:border-box;border:1px solid #1f3a5f;border-radius:10px;overflow:hidden;font-family:Arial,Helvetica,sans-serif;background:#ffffff;position:relative;">
<div style="background:#1f3a5f;color:#ffffff;font-size:12px;font-weight:bold;letter-spacing:1px;text-align:center;padding:6px 0;">{{.Title}}</div>
<div style="display:flex;padding:8px 10px;">
<div style="width:84px;height:104px;border:1px solid #c8d1dc;background:#f2f4f7;flex-shrink:0;">{{if .FotoURL}}<img src="{{.FotoURL}}" alt="Foto" style="width:84px;height:104px;object-fit:cover;display:block;">{{end}}</div>
<table style="margin-left:10px;font-size:9px;line-height:1.25;border-collapse:collapse;">
<tr><td style="color:#5b6b7f;">Apellido / Surname</td></tr><tr><td style="font-size:11px;font-weight:bold;">{{.Apellido}}</td></tr>
<tr><td style="color:#5b6b7f;">Nombre / Name</td></tr><tr><td style="font-size:11px;font-weight:bold;">{{.Nombre}}</td></tr>
<tr><td style="color:#5b6b7f;">Documento / ID Number</td></tr><tr><td style="font-weight:bold;">{{.Documento}}</td></tr>
<tr><td style="color:#5b6b7f;">Nacionalidad / Nationality</td></tr><tr><td style="font-weight:bold;">{{.Nacionalidad}}</td></tr>
<tr><td style="color:#5b6b7f;">Fecha de nacimiento / Date of birth</td></tr><tr><td style="font-weight:bold;">{{.FechaNacimiento}}</td></tr>
</table>
</div>
<div style="position:absolute;left:10px;bottom:8px;font-size:9px;"><span style="color:#5b6b7f;">{{.TipoLabel}}:</span> <strong>{{.Tipo}}</strong></div>
</div>{{end}}

{{define "dorso"}}<div class="credencial dorso" style="width:340px;height:214px;box-sizing:border-box;border:1px solid #1f3a5f;border-radius:10px;overflow:hidden;font-family:Arial,Helvetica,sans-serif;background:#ffffff;position:relative;">
<div style="padding:14px 14px 0 14px;font-size:9px;line-height:1.4;color:#1f2933;">
<p style="margin:0 0 8px 0;">La presente credencial acredita la condición de su titular ante las autoridades que correspondan.</p>
<p style="margin:0 0 8px 0;font-style:italic;color:#5b6b7f;">This card certifies the status of its holder before the relevant authorities.</p>
<div style="font-size:10px;"><span style="color:#5b6b7f;">Vencimiento / Expiry date:</span> <strong>{{.FechaVencimiento}}</strong></div>
</div>
<div style="position:absolute;left:14px;right:14px;bottom:34px;border-top:1px solid #1f2933;width:140px;font-size:8px;text-align:center;padding-top:2px;">Firma autorizada / Authorized signature</div>
<div style="position:absolute;left:0;right:0;bottom:0;background:#1f3a5f;color:#ffffff;font-size:8px;text-align:center;padding:4px 6px;line-height:1.3;">
<div>{{.Sede}}</div>
<div>{{.Registro}}</div>
</div>
</div>{{end}}

{{define "document"}}<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}} - {{.Apellido}}, {{.Nombre}}</title>
<style>@page { size: A4; margin: 12mm; } body { margin: 0; } .credencial { -webkit-print-color-adjust: exact; print-color-adjust: exact; }</style>
</head>
<body style="margin:0;padding:20px;">
<div style="display:flex;gap:20px;align-items:flex-start;">
{{template "frente" .}}
{{template "dorso" .}}
</div>
</body>
</html>
{{end}}`

var templates = template.Must(template.New("card").Parse(panelTemplates))
