package cms

// GROQ projections alias CMS fields onto the JSON shape of the Go types, so results decode
// without an intermediate mapping.
const (
	productProjection = `{
  "id": _id,
  "slug": slug.current,
  name,
  tagline,
  description,
  "imageUrl": image.asset->url,
  category,
  "categoryLabel": coalesce(categoryLabel[$lang], categoryLabel.en),
  variants[]{
    name,
    region,
    activeIngredients[]{ name, amount, unit }
  },
  supportedCrops[]{
    crop,
    dosage{ amount, unit }
  }
}`

	productsQuery = `*[_type == "product" && language == $lang && !(_id in path("drafts.**"))] | order(name asc) ` + productProjection

	productBySlugQuery = `*[_type == "product" && language == $lang && slug.current == $slug][0] ` + productProjection

	postProjection = `{
  "slug": slug.current,
  "lang": language,
  title,
  excerpt,
  body,
  tags,
  "coverImageUrl": mainImage.asset->url,
  "author": author->{ name, "profileUrl": url },
  publishedAt,
  "updatedAt": _updatedAt,
  "seo": { "metaTitle": seo.title, "metaDescription": seo.description, "ogImage": seo.image.asset->url }
}`

	postsQuery = `*[_type == "post" && language == $lang && defined(slug.current)] | order(publishedAt desc) ` + postProjection

	postBySlugQuery = `*[_type == "post" && language == $lang && slug.current == $slug][0] ` + postProjection

	pageBySlugQuery = `*[_type == $kind && language == $lang && slug.current == $slug][0]{
  "kind": _type,
  "slug": slug.current,
  "lang": language,
  title,
  summary,
  body,
  format,
  "updatedAt": _updatedAt,
  "seo": { "title": seo.title, "description": seo.description, "ogImage": seo.image.asset->url },
  "banner": banner{ variant, title, message, "linkText": linkText, "linkUrl": linkUrl }
}`
)
