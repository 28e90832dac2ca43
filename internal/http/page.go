package httpapi

// Served on every /scan hit. The inline script reports browser details to
// /scan/fp after render; it must never throw, so both collection and the
// follow-up request are wrapped.
const scanPage = `<!doctype html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>qr-sello</title>
</head>
<body>
<h1>&iexcl;Gracias por escanear!</h1>
<p>Tu visita ha sido registrada.</p>
<script>
(function () {
  try {
    var fp = {
      userAgent: navigator.userAgent,
      language: navigator.language,
      languages: navigator.languages,
      platform: navigator.platform,
      screenWidth: screen.width,
      screenHeight: screen.height,
      windowWidth: window.innerWidth,
      windowHeight: window.innerHeight,
      timezone: Intl.DateTimeFormat().resolvedOptions().timeZone
    };
    fetch("/scan/fp", {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify(fp)
    }).catch(function (err) { console.warn("fp submit failed", err); });
  } catch (err) {
    console.warn("fp collect failed", err);
  }
})();
</script>
</body>
</html>
`
